package syncer

import (
	"github.com/mdtree/docsync/internal/batch"
	"github.com/mdtree/docsync/internal/frontmatter"
	"github.com/mdtree/docsync/internal/links"
	"github.com/mdtree/docsync/internal/logging"
	"github.com/mdtree/docsync/internal/syncerr"
	"github.com/mdtree/docsync/internal/transform"
)

// rebasePass adjusts the links inside every copied Markdown file to its new
// location: links between co-copied files stay as written, links out of the
// copied region are re-expressed relative to the destination. Runs
// sequentially; it is part of the orchestration phase and fails fast.
func (c *call) rebasePass() error {
	svc := c.e.svc
	for _, p := range c.pairs {
		if !batch.IsMarkdown(p.dst) {
			continue
		}
		abs := c.e.abs(p.dst)
		info, err := svc.Stat(abs)
		if err != nil {
			return syncerr.IO("stat", p.dst, err)
		}
		data, err := svc.ReadFile(abs)
		if err != nil {
			return syncerr.IO("read", p.dst, err)
		}
		out, changed := links.RebaseContent(p.src, p.dst, string(data), c.mappings)
		if !changed {
			continue
		}
		if err := svc.WriteFile(abs, []byte(out), info.Mode().Perm()); err != nil {
			return syncerr.IO("write", p.dst, err)
		}
		logging.Debug("rebased links", logging.Path(p.dst))
	}
	return nil
}

// datasetRewrite updates every Markdown file in the dataset whose links
// resolve into the original region of this call's mappings. Runs after the
// copy (and, for a move, the source deletion) has fully committed.
func (c *call) datasetRewrite() error {
	if len(c.mappings) == 0 {
		return nil
	}
	files, err := c.datasetMarkdown()
	if err != nil {
		return err
	}
	logging.Debug("dataset link rewrite",
		logging.Count(len(files)),
		logging.Operation(string(c.op)),
	)
	return batch.ProcessFilesWithLinkReplacements(c.batchOptions(), files, c.mappings)
}

// referencePasses runs the identifier-style rewrite passes: skill references
// and frontmatter names for leaves renamed by a transform, plus any name map
// chained in from an earlier call, applied to the files this call copied.
func (c *call) referencePasses() error {
	if c.opts.Transform.Active() {
		nameMap := links.BuildSkillNameMap(c.mappings)
		if len(nameMap) > 0 {
			files, err := c.datasetMarkdown()
			if err != nil {
				return err
			}
			if err := batch.ProcessSkillReferences(c.batchOptions(), files, nameMap); err != nil {
				return err
			}
			if err := c.syncFrontmatter(); err != nil {
				return err
			}
			c.result.SkillNameMap = nameMap
		}
	}

	if len(c.opts.SkillNameMap) > 0 {
		if err := batch.ProcessSkillReferences(c.batchOptions(), c.newFiles(), c.opts.SkillNameMap); err != nil {
			return err
		}
	}
	return nil
}

// syncFrontmatter updates the frontmatter name field of files under a
// renamed leaf directory, writing only files whose content actually changed.
func (c *call) syncFrontmatter() error {
	svc := c.e.svc
	for _, m := range c.mappings {
		oldLeaf := transform.Leaf(m.OriginalDir)
		newLeaf := transform.Leaf(m.NewDir)
		if oldLeaf == "" || newLeaf == "" || oldLeaf == newLeaf {
			continue
		}
		for _, f := range m.Files {
			if !batch.IsMarkdown(f) {
				continue
			}
			abs := c.e.abs(f)
			info, err := svc.Stat(abs)
			if err != nil {
				return syncerr.IO("stat", f, err)
			}
			data, err := svc.ReadFile(abs)
			if err != nil {
				return syncerr.IO("read", f, err)
			}
			out, changed := frontmatter.SyncName(data, oldLeaf, newLeaf)
			if !changed {
				continue
			}
			if err := svc.WriteFile(abs, out, info.Mode().Perm()); err != nil {
				return syncerr.IO("write", f, err)
			}
			logging.Debug("synced frontmatter name",
				logging.Path(f),
				logging.Operation("frontmatter"),
			)
		}
	}
	return nil
}
