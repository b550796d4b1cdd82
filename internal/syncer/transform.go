package syncer

import (
	"path"
	"sort"

	"github.com/mdtree/docsync/internal/behavior"
	"github.com/mdtree/docsync/internal/fsys"
	"github.com/mdtree/docsync/internal/links"
	"github.com/mdtree/docsync/internal/logging"
	"github.com/mdtree/docsync/internal/syncerr"
	"github.com/mdtree/docsync/internal/transform"
)

// copyTransform copies a directory tree while renaming destination
// subdirectories per the configured flatten/prefix transform. Collision
// detection runs over the complete set of subdirectories before anything is
// written; a collision aborts the whole call.
func (c *call) copyTransform(srcRel, dstRel string) error {
	svc := c.e.svc

	files, err := fsys.WalkFiles(svc, c.e.abs(srcRel))
	if err != nil {
		return syncerr.IO("readdir", srcRel, err)
	}

	dirSet := make(map[string]bool)
	for _, f := range files {
		dirSet[path.Dir(f)] = true
	}
	dirs := make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	if collisions := transform.DetectCollisions(dirs, c.opts.Transform); len(collisions) > 0 {
		names := transform.CollisionNames(collisions)
		logging.Warn("transform collision aborts operation",
			logging.Source(srcRel),
			logging.Count(len(names)),
		)
		return syncerr.Collision(string(c.op), names)
	}

	madeDirs := make(map[string]bool)
	dirFiles := make(map[string][]string)
	dirSkipped := make(map[string][]string)
	for _, f := range files {
		d := path.Dir(f)
		newDir := c.transformedDir(dstRel, d)
		srcFile := path.Join(srcRel, f)
		dstFile := path.Join(newDir, path.Base(f))

		if !madeDirs[newDir] {
			if err := svc.MkdirAll(c.e.abs(newDir), fsys.DirPerm); err != nil {
				return syncerr.IO("mkdir", newDir, err)
			}
			madeDirs[newDir] = true
		}

		exists := fsys.Exists(svc, c.e.abs(dstFile))
		if exists && c.behaviorFor(srcFile) == behavior.Skip {
			c.record(dstFile, ActionSkipped, "destination exists")
			c.skippedSrc = append(c.skippedSrc, srcFile)
			dirSkipped[d] = append(dirSkipped[d], srcFile)
			continue
		}
		if err := fsys.CopyFile(svc, c.e.abs(srcFile), c.e.abs(dstFile)); err != nil {
			err = syncerr.IO("copy", dstFile, err)
			c.recordFailed(dstFile, err)
			return err
		}
		if exists {
			c.record(dstFile, ActionUpdated, "")
		} else {
			c.record(dstFile, ActionCreated, "")
		}
		c.pairs = append(c.pairs, filePair{src: srcFile, dst: dstFile})
		dirFiles[d] = append(dirFiles[d], dstFile)
	}

	for _, d := range dirs {
		copied := dirFiles[d]
		if len(copied) == 0 {
			continue
		}
		orig := srcRel
		if d != "." {
			orig = path.Join(srcRel, d)
		}
		c.mappings = append(c.mappings, links.PathMapping{
			OriginalDir: orig,
			NewDir:      c.transformedDir(dstRel, d),
			Files:       copied,
			Retained:    dirSkipped[d],
		})
	}
	return nil
}

// transformedDir maps a source-relative subdirectory to its dataset-relative
// destination directory under the call's target.
func (c *call) transformedDir(dstRel, relDir string) string {
	if relDir == "." || relDir == "" {
		return dstRel
	}
	return path.Join(dstRel, transform.Path(relDir, c.opts.Transform))
}
