package analyzer

import (
	"path/filepath"
	"strings"
)

// detectLimit bounds how much code language detection inspects.
const detectLimit = 4000

// DetectLanguage guesses the language of code when the caller did not name one.
// It returns "unknown" when nothing matches. Checks run from most to least
// specific.
func DetectLanguage(code string) string {
	s := code
	if len(s) > detectLimit {
		s = s[:detectLimit]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	lower := strings.ToLower(s)
	has := func(subs ...string) bool {
		for _, sub := range subs {
			if strings.Contains(s, sub) {
				return true
			}
		}
		return false
	}
	hasLower := func(subs ...string) bool {
		for _, sub := range subs {
			if strings.Contains(lower, sub) {
				return true
			}
		}
		return false
	}

	switch {
	case has("<?php") || (has("$_") && hasLower("echo ", "function ")):
		return "php"
	case has("#include", "int main(", "void main(", "printf(", "cout ", "std::"):
		return "c/c++"
	case hasLower("package main") || (hasLower("func ") && hasLower("import (")):
		return "go"
	case hasLower("fn main", "let mut ", "impl ") || strings.HasPrefix(lower, "fn "):
		return "rust"
	case hasLower("public class ", "import java.") || has("System.out") ||
		(hasLower("private ") && hasLower("void ")):
		return "java"
	case hasLower("def ") && hasLower("puts ") && hasLower("end"):
		return "ruby"
	case hasLower("def ", "print(", "if __name__", "lambda ", "elif ") ||
		has("try:", "except:", "except ") || (hasLower("import ") && !hasLower("export ", "const ", "=>")):
		return "python"
	case hasLower("function ", "const ", "let ", "var ", "console.log", "export ", "async ") || has("=>"):
		return "javascript"
	}
	return "unknown"
}

var extLanguages = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".mjs":  "javascript",
	".jsx":  "javascript",
	".ts":   "javascript",
	".tsx":  "javascript",
	".go":   "go",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".php":  "php",
	".c":    "c/c++",
	".h":    "c/c++",
	".cc":   "c/c++",
	".cpp":  "c/c++",
	".hpp":  "c/c++",
}

// LanguageForPath returns the language implied by a file name's extension,
// or "" when the extension is not recognized.
func LanguageForPath(name string) string {
	return extLanguages[strings.ToLower(filepath.Ext(name))]
}
