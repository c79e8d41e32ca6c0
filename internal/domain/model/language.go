package model

import "sort"

type Language struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	FileName string `json:"-"`
	// Submittable languages may be used for judged submissions, the rest only for execute.
	Submittable bool `json:"submittable"`
}

var languages = map[string]Language{
	"javascript": {ID: "javascript", Name: "JavaScript", Version: "18.15.0", FileName: "main.js", Submittable: true},
	"typescript": {ID: "typescript", Name: "TypeScript", Version: "5.0.3", FileName: "main.ts", Submittable: true},
	"python":     {ID: "python", Name: "Python", Version: "3.10.0", FileName: "main.py", Submittable: true},
	"java":       {ID: "java", Name: "Java", Version: "15.0.2", FileName: "Main.java", Submittable: true},
	"cpp":        {ID: "cpp", Name: "C++", Version: "10.2.0", FileName: "main.cpp", Submittable: true},
	"go":         {ID: "go", Name: "Go", Version: "1.16.2", FileName: "main.go", Submittable: true},
	"rust":       {ID: "rust", Name: "Rust", Version: "1.68.2", FileName: "main.rs", Submittable: true},
	"ruby":       {ID: "ruby", Name: "Ruby", Version: "3.2.2", FileName: "main.rb"},
	"php":        {ID: "php", Name: "PHP", Version: "8.2.3", FileName: "main.php"},
}

func LookupLanguage(id string) (Language, bool) {
	lang, ok := languages[id]
	return lang, ok
}

func ListLanguages() []Language {
	out := make([]Language, 0, len(languages))
	for _, l := range languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
