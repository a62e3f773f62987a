package sourcediff

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"git.home.luguber.info/inful/incremit/internal/orchestrator"
)

// GitSource diffs the commit at HEAD against the one seen on the previous
// call. Sources are read from the working tree, so the checkout must follow HEAD.
type GitSource struct {
	repo   *git.Repository
	prefix string // source dir relative to the worktree root, slash separated, "" for the root
	filter Filter
	last   plumbing.Hash
}

var _ Source = (*GitSource)(nil)

// NewGitSource opens the repository containing sourceDir.
func NewGitSource(sourceDir string, filter Filter) (*GitSource, error) {
	repo, err := git.PlainOpenWithOptions(sourceDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return nil, fmt.Errorf("resolve worktree root: %w", err)
	}
	dir, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source dir: %w", err)
	}
	if dir, err = filepath.EvalSymlinks(dir); err != nil {
		return nil, fmt.Errorf("resolve source dir: %w", err)
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("source dir %s is outside repository %s", sourceDir, root)
	}

	prefix := ""
	if rel != "." {
		prefix = normalizePath(filepath.ToSlash(rel)) + "/"
	}
	return &GitSource{repo: repo, prefix: prefix, filter: filter}, nil
}

// Head returns the commit HEAD points at.
func (g *GitSource) Head() (plumbing.Hash, error) {
	ref, err := g.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash(), nil
}

// Next implements Source. The first call lists every source file at HEAD;
// later calls return the changes between the previous HEAD and the current
// one, or an empty diff when HEAD has not moved.
func (g *GitSource) Next(ctx context.Context) (orchestrator.Diff, error) {
	head, err := g.Head()
	if err != nil {
		return orchestrator.Diff{}, err
	}
	if head == g.last {
		return orchestrator.Diff{}, nil
	}

	var diff orchestrator.Diff
	if g.last.IsZero() {
		diff, err = g.list(head)
	} else {
		diff, err = g.diffCommits(ctx, g.last, head)
	}
	if err != nil {
		return orchestrator.Diff{}, err
	}
	g.last = head
	return diff, nil
}

// Diff returns the changes between two revisions without moving the source.
func (g *GitSource) Diff(ctx context.Context, from, to string) (orchestrator.Diff, error) {
	a, err := g.repo.ResolveRevision(plumbing.Revision(from))
	if err != nil {
		return orchestrator.Diff{}, fmt.Errorf("resolve %s: %w", from, err)
	}
	b, err := g.repo.ResolveRevision(plumbing.Revision(to))
	if err != nil {
		return orchestrator.Diff{}, fmt.Errorf("resolve %s: %w", to, err)
	}
	return g.diffCommits(ctx, *a, *b)
}

func (g *GitSource) list(commit plumbing.Hash) (orchestrator.Diff, error) {
	tree, err := g.tree(commit)
	if err != nil {
		return orchestrator.Diff{}, err
	}
	var diff orchestrator.Diff
	err = tree.Files().ForEach(func(f *object.File) error {
		if rel, ok := g.project(f.Name); ok {
			diff.Changed = append(diff.Changed, rel)
		}
		return nil
	})
	if err != nil {
		return orchestrator.Diff{}, fmt.Errorf("list tree: %w", err)
	}
	slices.Sort(diff.Changed)
	return diff, nil
}

func (g *GitSource) diffCommits(ctx context.Context, from, to plumbing.Hash) (orchestrator.Diff, error) {
	oldTree, err := g.tree(from)
	if err != nil {
		return orchestrator.Diff{}, err
	}
	newTree, err := g.tree(to)
	if err != nil {
		return orchestrator.Diff{}, err
	}
	changes, err := object.DiffTreeWithOptions(ctx, oldTree, newTree, nil)
	if err != nil {
		return orchestrator.Diff{}, fmt.Errorf("diff trees: %w", err)
	}

	var diff orchestrator.Diff
	for _, c := range changes {
		action, err := c.Action()
		if err != nil {
			return orchestrator.Diff{}, fmt.Errorf("classify change: %w", err)
		}
		switch action {
		case merkletrie.Insert:
			g.appendIf(&diff.Changed, c.To.Name)
		case merkletrie.Delete:
			g.appendIf(&diff.Removed, c.From.Name)
		case merkletrie.Modify:
			if c.From.Name != c.To.Name {
				g.appendIf(&diff.Removed, c.From.Name)
			}
			g.appendIf(&diff.Changed, c.To.Name)
		}
	}
	slices.Sort(diff.Changed)
	slices.Sort(diff.Removed)
	return diff, nil
}

func (g *GitSource) appendIf(dst *[]string, name string) {
	if rel, ok := g.project(name); ok {
		*dst = append(*dst, rel)
	}
}

// project maps a tree path to a project-relative source path.
func (g *GitSource) project(name string) (string, bool) {
	name = normalizePath(name)
	if !strings.HasPrefix(name, g.prefix) {
		return "", false
	}
	rel := strings.TrimPrefix(name, g.prefix)
	if hidden(rel) || !g.filter.Match(rel) {
		return "", false
	}
	return rel, true
}

func (g *GitSource) tree(commit plumbing.Hash) (*object.Tree, error) {
	c, err := g.repo.CommitObject(commit)
	if err != nil {
		return nil, fmt.Errorf("get commit %s: %w", commit, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("get tree for %s: %w", commit, err)
	}
	return tree, nil
}
