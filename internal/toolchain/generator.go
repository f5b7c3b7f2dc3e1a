package toolchain

import (
	"os"
	"path/filepath"
	"strings"
)

// Generator reports the CMake generator the configure step should
// request on a Windows host, judged by which compiler toolchains are
// visible on pathList (a PATH-style list of directories). An empty
// result means no -G flag: either cl.exe is present and the default
// Visual Studio generator applies, or nothing recognizable was found.
//
// Precedence follows the native build's expectations: cl.exe wins,
// then sh.exe selects "MSYS Makefiles", then gcc.exe selects
// "MinGW Makefiles".
func Generator(pathList string) string {
	names := make(map[string]bool)
	for _, dir := range filepath.SplitList(pathList) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			names[strings.ToLower(e.Name())] = true
		}
	}

	switch {
	case names["cl.exe"]:
		return ""
	case names["sh.exe"]:
		return "MSYS Makefiles"
	case names["gcc.exe"]:
		return "MinGW Makefiles"
	}
	return ""
}
