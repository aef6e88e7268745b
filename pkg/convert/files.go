package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

func slideFileName(slideNumber int, ext string) string {
	return fmt.Sprintf("slide-%d%s", slideNumber, ext)
}

// hasOutput says whether a tool left a non-empty file at path.
func hasOutput(path string) bool {
	finfo, err := os.Stat(path)
	return err == nil && finfo.Mode().IsRegular() && finfo.Size() > 0
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// collectImages lists the image files directly in dir in slide order: names with a
// trailing number sort by that number, everything else sorts by name.
func collectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var images []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] && hasOutput(filepath.Join(dir, entry.Name())) {
			images = append(images, entry.Name())
		}
	}

	sortSlideNames(images)
	return images, nil
}

func sortSlideNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ni, iNumbered := trailingNumber(names[i])
		nj, jNumbered := trailingNumber(names[j])

		switch {
		case iNumbered && jNumbered && ni != nj:
			return ni < nj
		case iNumbered != jNumbered:
			return !iNumbered
		default:
			return names[i] < names[j]
		}
	})
}

func trailingNumber(name string) (int, bool) {
	s := stem(name)
	end := len(s)
	start := end
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}

	if start == end {
		return 0, false
	}

	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, false
	}

	return n, true
}

// profileURL is a LibreOffice user installation under dir. Giving every run its own profile
// lets several soffice processes run at once.
func profileURL(dir string) string {
	return "-env:UserInstallation=file://" + filepath.ToSlash(filepath.Join(dir, "profile"))
}
