/*
Package fileio holds small file system helpers shared by the packages which
write UFO data. All writes go through a temporary file in the target folder,
which is renamed into place, so a failing write never leaves a partially
written file behind.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package fileio

import (
	"os"
	"path/filepath"

	"github.com/npillmayer/glifbez/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'glifbez.fileio'
func tracer() tracing.Trace {
	return tracing.Select("glifbez.fileio")
}

// EnsureDir checks and possibly creates a folder. Non-existing parent
// folders will be created as necessary (with permissions 755).
func EnsureDir(dir string) error {
	_, err := os.Stat(dir)
	if os.IsNotExist(err) {
		tracer().Debugf("creating folder %s", dir)
		err = os.MkdirAll(dir, 0755)
	}
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot create folder %s", dir)
	}
	return nil
}

// Exists is true if a file or folder at path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteAtomic writes data to filename. The data is first written to a
// temporary file next to filename, which then replaces filename.
// The target folder is created if it does not exist.
func WriteAtomic(filename string, data []byte) error {
	dir := filepath.Dir(filename)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*")
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot write %s", filename)
	}
	tmpname := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpname)
		return core.WrapError(err, core.EINTERNAL, "cannot write %s", filename)
	}
	if _, err = tmp.Write(data); err != nil {
		return fail(err)
	}
	if err = tmp.Sync(); err != nil {
		return fail(err)
	}
	if err = tmp.Chmod(0644); err != nil {
		return fail(err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpname)
		return core.WrapError(err, core.EINTERNAL, "cannot write %s", filename)
	}
	if err = os.Rename(tmpname, filename); err != nil {
		os.Remove(tmpname)
		return core.WrapError(err, core.EINTERNAL, "cannot write %s", filename)
	}
	tracer().Debugf("wrote %s", filename)
	return nil
}

// Remove deletes a file. A file which does not exist is not an error.
// Remove reports if a file has actually been deleted.
func Remove(filename string) (bool, error) {
	err := os.Remove(filename)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, core.WrapError(err, core.EINTERNAL, "cannot remove %s", filename)
	}
	tracer().Debugf("removed %s", filename)
	return true, nil
}
