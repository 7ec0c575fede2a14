package manager

import (
	"path/filepath"
	"strings"
)

// pythonSuffixes are the file extensions of Python sources and bytecode.
var pythonSuffixes = []string{".py", ".pyc", ".pyo"}

// IsPythonPackage applies the native ownership heuristic: a package is a
// Python package when its name carries a runtime prefix, when it requires a
// Python interpreter, or when every file it ships is a Python source or
// bytecode file. A package without files only qualifies through the first
// two rules.
func IsPythonPackage(name string, requires, files []string) bool {
	if HasRuntimePrefix(name) {
		return true
	}
	if RequiresPython(requires) {
		return true
	}
	return AllPythonFiles(files)
}

// RequiresPython reports whether any requirement ends in a Python
// interpreter name, like "python3" or "/usr/bin/python3". Only the dpkg
// qualifiers ":any" and " (>= 3.8)" are stripped first, so rpm capabilities
// such as "python(abi) = 3.12" or "python3 >= 3.6" do not count.
func RequiresPython(requires []string) bool {
	for _, req := range requires {
		req = strings.TrimSpace(req)
		if i := strings.Index(req, " ("); i >= 0 {
			req = req[:i]
		}
		if i := strings.IndexByte(req, ':'); i >= 0 {
			req = req[:i]
		}
		if strings.HasSuffix(req, "python") || strings.HasSuffix(req, "python3") {
			return true
		}
	}
	return false
}

// AllPythonFiles reports whether files is non-empty and every entry has a
// Python source or bytecode extension.
func AllPythonFiles(files []string) bool {
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if !hasPythonSuffix(f) {
			return false
		}
	}
	return true
}

func hasPythonSuffix(path string) bool {
	ext := filepath.Ext(path)
	for _, s := range pythonSuffixes {
		if ext == s {
			return true
		}
	}
	return false
}

// LocationOf guesses an install location from an owned file list: the
// directory of the first file. It returns "" when files is empty.
func LocationOf(files []string) string {
	if len(files) == 0 {
		return ""
	}
	return filepath.Dir(files[0])
}
