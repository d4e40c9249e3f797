package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yungbote/glossary-backend/internal/data/repos"
	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

var documentExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// DocumentSource returns a project's persisted documents, falling back to the
// filesystem when none are persisted. Documents read from disk are persisted
// so later runs take the DB path.
type DocumentSource struct {
	docs repos.DocumentRepo
	root string
	log  *logger.Logger
}

func NewDocumentSource(docs repos.DocumentRepo, root string, baseLog *logger.Logger) *DocumentSource {
	return &DocumentSource{
		docs: docs,
		root: strings.TrimSpace(root),
		log:  baseLog.With("component", "DocumentSource"),
	}
}

func (s *DocumentSource) Load(dbc dbctx.Context, project *types.Project) ([]*types.Document, error) {
	if project == nil {
		return nil, fmt.Errorf("project required")
	}
	docs, err := s.docs.ListByProject(dbc, project.ID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if len(docs) > 0 {
		return docs, nil
	}

	for _, dir := range s.candidateDirs(project) {
		found, err := readDocumentDir(dir)
		if err != nil {
			s.log.Warn("Document directory unreadable", "dir", dir, "error", err)
			continue
		}
		if len(found) == 0 {
			continue
		}
		for _, d := range found {
			d.ProjectID = project.ID
			d.Source = types.DocumentSourceFilesystem
		}
		saved, err := s.docs.Create(dbc, found)
		if err != nil {
			return nil, fmt.Errorf("persist filesystem documents: %w", err)
		}
		s.log.Info("Loaded documents from filesystem", "project_id", project.ID, "dir", dir, "count", len(saved))
		return saved, nil
	}
	return nil, nil
}

// candidateDirs lists the project's own root first, then <root>/<project name>, then root.
func (s *DocumentSource) candidateDirs(project *types.Project) []string {
	var dirs []string
	if p := strings.TrimSpace(project.DocumentRoot); p != "" {
		dirs = append(dirs, p)
	}
	if s.root != "" {
		if name := strings.TrimSpace(project.Name); name != "" {
			dirs = append(dirs, filepath.Join(s.root, name))
		}
		dirs = append(dirs, s.root)
	}
	return dirs
}

func readDocumentDir(dir string) ([]*types.Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var out []*types.Document
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !documentExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		content := strings.TrimSpace(string(raw))
		if content == "" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = d.Name()
		}
		out = append(out, &types.Document{Name: filepath.ToSlash(rel), Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
