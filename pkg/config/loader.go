package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/skiff-cloud/skiff/pkg/io/logging"
	"gopkg.in/yaml.v2"
)

// Loader reads configuration documents from disk. Paths may be absolute or
// relative to the project root. A batch either loads completely or fails as
// a whole: every failing path is collected into one aggregate error and no
// partial result is returned.
type Loader struct {
	root   string
	logger logging.LogManager
}

func NewLoader(projectRoot string) *Loader {
	return &Loader{
		root:   projectRoot,
		logger: logging.GetLogManager(),
	}
}

func (l *Loader) Root() string {
	return l.root
}

func (l *Loader) LoadRoleDocuments(paths []string) ([]RoleDocument, error) {
	docs, err := loadDocuments(l, paths, func(doc *RoleDocument) error {
		l.expandRolePolicies(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := checkDuplicates("role", docs, func(d RoleDocument) string { return d.RoleName }); err != nil {
		return nil, err
	}
	return docs, nil
}

func (l *Loader) LoadFunctionDocuments(paths []string) ([]FunctionDocument, error) {
	docs, err := loadDocuments[FunctionDocument](l, paths, nil)
	if err != nil {
		return nil, err
	}
	if err := checkDuplicates("function", docs, func(d FunctionDocument) string { return d.Service.FunctionName }); err != nil {
		return nil, err
	}
	return docs, nil
}

func (l *Loader) LoadRestAPIDocuments(paths []string) ([]RestAPIDocument, error) {
	docs, err := loadDocuments[RestAPIDocument](l, paths, nil)
	if err != nil {
		return nil, err
	}
	if err := checkDuplicates("rest api", docs, func(d RestAPIDocument) string { return d.Name }); err != nil {
		return nil, err
	}
	return docs, nil
}

func (l *Loader) LoadHTTPAPIDocuments(paths []string) ([]HTTPAPIDocument, error) {
	docs, err := loadDocuments[HTTPAPIDocument](l, paths, nil)
	if err != nil {
		return nil, err
	}
	if err := checkDuplicates("http api", docs, func(d HTTPAPIDocument) string { return d.Name }); err != nil {
		return nil, err
	}
	return docs, nil
}

// ResolvePath makes a document or artifact path absolute against the
// project root.
func (l *Loader) ResolvePath(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.root, path)
	}
	path, _ = filepath.Abs(filepath.Clean(path))
	return path
}

func loadDocuments[T any](l *Loader, paths []string, expand func(doc *T) error) ([]T, error) {
	var errs *multierror.Error
	docs := make([]T, 0, len(paths))

	for _, path := range paths {
		resolved := l.ResolvePath(path)
		var doc T
		if err := decodeFile(resolved, &doc); err != nil {
			l.reportFailure(path, resolved, err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if expand != nil {
			if err := expand(&doc); err != nil {
				l.reportFailure(path, resolved, err)
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
				continue
			}
		}
		l.logger.Debug("Loaded configuration document", "path", path, "resolved", resolved)
		docs = append(docs, doc)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return docs, nil
}

// expandRolePolicies pops the trust policy and inline policy file references
// of a role document and inlines their content. A broken trust policy leaves
// the field absent; a broken inline policy file is dropped. Neither is fatal
// to the role.
func (l *Loader) expandRolePolicies(doc *RoleDocument) {
	if doc.TrustPolicyPath != "" {
		var trust PolicyDocument
		resolved := l.ResolvePath(doc.TrustPolicyPath)
		if err := decodeFile(resolved, &trust); err != nil {
			l.logger.Warn("Could not load trust policy", "role", doc.RoleName, "path", resolved, "err", err)
		} else {
			doc.TrustPolicy = &trust
		}
		doc.TrustPolicyPath = ""
	}

	if len(doc.InlinePolicyFiles) > 0 {
		doc.InlinePolicies = make(map[string]PolicyDocument, len(doc.InlinePolicyFiles))
		for _, policyPath := range doc.InlinePolicyFiles {
			resolved := l.ResolvePath(policyPath)
			var policy PolicyDocument
			if err := decodeFile(resolved, &policy); err != nil {
				l.logger.Warn("Could not load inline policy", "role", doc.RoleName, "path", resolved, "err", err)
				continue
			}
			base := filepath.Base(resolved)
			name := strings.TrimSuffix(base, filepath.Ext(base))
			doc.InlinePolicies[name] = policy
		}
		doc.InlinePolicyFiles = nil
	}
}

// reportFailure prints what was actually attempted: the resolved absolute
// path and, when the parent directory exists, its real content.
func (l *Loader) reportFailure(path, resolved string, err error) {
	l.logger.Warn("Failed to load configuration document", "path", path, "resolved", resolved, "err", err)
	dir := filepath.Dir(resolved)
	entries, dirErr := os.ReadDir(dir)
	if dirErr != nil {
		return
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	l.logger.Warn("Directory content", "dir", dir, "entries", strings.Join(names, ", "))
}

func decodeFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	default:
		return json.Unmarshal(data, v)
	}
}

func checkDuplicates[T any](kind string, docs []T, name func(T) string) error {
	var errs *multierror.Error
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		n := name(doc)
		// Unnamed documents are skipped by the resolvers, not rejected here.
		if n == "" {
			continue
		}
		if seen[n] {
			errs = multierror.Append(errs, fmt.Errorf("duplicate %s name %q in batch", kind, n))
		}
		seen[n] = true
	}
	return errs.ErrorOrNil()
}
