package syncer

import (
	"path"
	"strings"

	"github.com/mdtree/docsync/internal/behavior"
	"github.com/mdtree/docsync/internal/fsys"
	"github.com/mdtree/docsync/internal/links"
	"github.com/mdtree/docsync/internal/logging"
	"github.com/mdtree/docsync/internal/safety"
	"github.com/mdtree/docsync/internal/syncerr"
)

// copyDir copies a directory tree without naming transforms. The walk uses
// an explicit worklist so tree depth never threatens the stack. Behavior is
// resolved per directory against the source-relative path; skip
// short-circuits without descending, mirror deletes destination entries
// absent from the source, scoped strictly to the copied subtree.
func (c *call) copyDir(srcRel, dstRel string) error {
	svc := c.e.svc
	pairsBefore := len(c.pairs)
	skippedBefore := len(c.skippedSrc)

	type job struct {
		src string
		dst string
	}
	work := []job{{src: srcRel, dst: dstRel}}
	for len(work) > 0 {
		j := work[len(work)-1]
		work = work[:len(work)-1]

		b := c.behaviorFor(j.src)
		dstAbs := c.e.abs(j.dst)
		dstExisted := fsys.Exists(svc, dstAbs)

		if dstExisted && b == behavior.Skip {
			c.record(j.dst, ActionSkipped, "destination exists")
			c.skippedSrc = append(c.skippedSrc, j.src)
			logging.Debug("skipped existing directory",
				logging.Path(j.dst),
				logging.Behavior(string(b)),
			)
			continue
		}

		if err := svc.MkdirAll(dstAbs, fsys.DirPerm); err != nil {
			return syncerr.IO("mkdir", j.dst, err)
		}

		entries, err := svc.ReadDir(c.e.abs(j.src))
		if err != nil {
			return syncerr.IO("readdir", j.src, err)
		}

		names := make(map[string]bool, len(entries))
		for _, entry := range entries {
			names[entry.Name()] = true
			srcChild := path.Join(j.src, entry.Name())
			dstChild := path.Join(j.dst, entry.Name())
			if entry.IsDir() {
				work = append(work, job{src: srcChild, dst: dstChild})
				continue
			}
			if err := c.copyOne(srcChild, dstChild); err != nil {
				return err
			}
		}

		if b == behavior.Mirror && dstExisted {
			if err := c.mirrorCleanup(dstRel, j.dst, names); err != nil {
				return err
			}
		}
	}

	// A mapping exists only when content actually relocated: a fully
	// skipped copy leaves every dataset link pointing at the source,
	// and a partial skip keeps the retained paths out of the rewrite.
	if len(c.pairs) == pairsBefore {
		return nil
	}
	c.mappings = append(c.mappings, links.PathMapping{
		OriginalDir: srcRel,
		NewDir:      dstRel,
		Files:       c.newFiles(),
		Retained:    append([]string(nil), c.skippedSrc[skippedBefore:]...),
	})
	return nil
}

// mirrorCleanup deletes entries of dstDir that have no source counterpart.
// opRoot is the destination root of the whole call; every doomed path is
// re-validated against both the dataset root and opRoot before deletion so
// cleanup can never reach unrelated sibling content.
func (c *call) mirrorCleanup(opRoot, dstDir string, srcNames map[string]bool) error {
	svc := c.e.svc

	entries, err := svc.ReadDir(c.e.abs(dstDir))
	if err != nil {
		return syncerr.IO("readdir", dstDir, err)
	}
	for _, entry := range entries {
		if srcNames[entry.Name()] {
			continue
		}
		doomed := path.Join(dstDir, entry.Name())
		if _, ok := safety.ResolveWithinRoot(c.e.root, doomed); !ok {
			return syncerr.MirrorConstraint(doomed)
		}
		if doomed != opRoot && !strings.HasPrefix(doomed, opRoot+"/") {
			return syncerr.MirrorConstraint(doomed)
		}

		if c.opts.Snapshot != nil {
			if err := c.opts.Snapshot([]string{doomed}); err != nil {
				return syncerr.IO("backup", doomed, err)
			}
		}

		if entry.IsDir() {
			err = svc.RemoveAll(c.e.abs(doomed))
		} else {
			err = svc.Remove(c.e.abs(doomed))
		}
		if err != nil {
			return syncerr.IO("remove", doomed, err)
		}
		c.record(doomed, ActionDeleted, "not present in source")
		logging.Debug("mirror cleanup removed entry", logging.Path(doomed))
	}
	return nil
}
