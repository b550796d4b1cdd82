package fsys

import (
	"path"
	"sort"
)

// WalkFiles returns every regular file under dir, as slash-separated paths
// relative to dir, sorted. The walk uses an explicit worklist rather than
// recursion so tree depth never threatens the stack.
func WalkFiles(svc Service, dir string) ([]string, error) {
	var files []string

	type item struct {
		abs string
		rel string
	}
	work := []item{{abs: dir, rel: ""}}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]

		entries, err := svc.ReadDir(cur.abs)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			rel := entry.Name()
			if cur.rel != "" {
				rel = path.Join(cur.rel, entry.Name())
			}
			abs := path.Join(cur.abs, entry.Name())
			if entry.IsDir() {
				work = append(work, item{abs: abs, rel: rel})
			} else {
				files = append(files, rel)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// WalkDirs returns every directory under dir (excluding dir itself), as
// slash-separated paths relative to dir, sorted.
func WalkDirs(svc Service, dir string) ([]string, error) {
	var dirs []string

	type item struct {
		abs string
		rel string
	}
	work := []item{{abs: dir, rel: ""}}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]

		entries, err := svc.ReadDir(cur.abs)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			rel := entry.Name()
			if cur.rel != "" {
				rel = path.Join(cur.rel, entry.Name())
			}
			dirs = append(dirs, rel)
			work = append(work, item{abs: path.Join(cur.abs, entry.Name()), rel: rel})
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}
