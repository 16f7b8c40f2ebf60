package corpus

import "strings"

// Naming is the file naming convention that pairs speech text files with
// their metadata tables: X.txt goes with X-meta-en.tsv in the same directory.
type Naming struct {
	TextExtension string
	MetaSuffix    string
	// ReadmePrefix marks documentation files; matched case-sensitively.
	ReadmePrefix string
}

// DefaultNaming returns the ParlaMint convention.
func DefaultNaming() Naming {
	return Naming{
		TextExtension: ".txt",
		MetaSuffix:    "-meta-en.tsv",
		ReadmePrefix:  "00README",
	}
}

// IsTextFile reports whether a file name is a speech text file to process.
func (n Naming) IsTextFile(name string) bool {
	if !strings.HasSuffix(name, n.TextExtension) {
		return false
	}
	if n.ReadmePrefix != "" && strings.HasPrefix(name, n.ReadmePrefix) {
		return false
	}
	if n.MetaSuffix != "" && strings.Contains(name, n.MetaSuffix) {
		return false
	}
	return true
}

// MetaFileName derives the metadata file name for a text file name. The
// extension is stripped together with any further extension fragments, so
// both "X.txt" and "X.txt.txt" map to "X-meta-en.tsv".
func (n Naming) MetaFileName(textName string) string {
	base := strings.TrimSuffix(textName, n.TextExtension)
	base = strings.ReplaceAll(base, n.TextExtension, "")
	return base + n.MetaSuffix
}
