package language

// Language describes a target language offered to surfaces as a suggestion.
type Language struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Extension string   `json:"extension,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`
}

// Seed provides the default catalog.
func Seed() []Language {
	return []Language{
		{ID: "python", Name: "Python", Extension: ".py", Aliases: []string{"py", "python3"}},
		{ID: "go", Name: "Go", Extension: ".go", Aliases: []string{"golang"}},
		{ID: "javascript", Name: "JavaScript", Extension: ".js", Aliases: []string{"js", "node"}},
		{ID: "typescript", Name: "TypeScript", Extension: ".ts", Aliases: []string{"ts"}},
		{ID: "java", Name: "Java", Extension: ".java"},
		{ID: "c", Name: "C", Extension: ".c"},
		{ID: "cpp", Name: "C++", Extension: ".cpp", Aliases: []string{"c++", "cxx"}},
		{ID: "csharp", Name: "C#", Extension: ".cs", Aliases: []string{"c#", "cs", "dotnet"}},
		{ID: "rust", Name: "Rust", Extension: ".rs", Aliases: []string{"rs"}},
		{ID: "ruby", Name: "Ruby", Extension: ".rb", Aliases: []string{"rb"}},
		{ID: "php", Name: "PHP", Extension: ".php"},
		{ID: "kotlin", Name: "Kotlin", Extension: ".kt"},
		{ID: "swift", Name: "Swift", Extension: ".swift"},
		{ID: "bash", Name: "Bash", Extension: ".sh", Aliases: []string{"shell", "sh"}},
		{ID: "sql", Name: "SQL", Extension: ".sql"},
	}
}
