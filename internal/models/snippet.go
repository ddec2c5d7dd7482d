package models

import "sort"

// Snippet is a gist as returned by the GitHub gists API.
// Files is only populated by the detail endpoint.
type Snippet struct {
	ID          string                 `json:"id"`
	URL         string                 `json:"url"`
	HTMLURL     string                 `json:"html_url"`
	Description string                 `json:"description,omitempty"`
	Public      bool                   `json:"public"`
	Truncated   bool                   `json:"truncated,omitempty"`
	Files       map[string]SnippetFile `json:"files,omitempty"`
}

// SnippetFile is one file of a gist
type SnippetFile struct {
	Filename  string `json:"filename"`
	Type      string `json:"type,omitempty"`
	Language  string `json:"language,omitempty"`
	RawURL    string `json:"raw_url"`
	Size      int    `json:"size"`
	Truncated bool   `json:"truncated"`
	Content   string `json:"content,omitempty"`
}

// TruncatedFiles returns the files whose content was cut off by the API,
// ordered by file name.
func (s *Snippet) TruncatedFiles() []SnippetFile {
	names := make([]string, 0, len(s.Files))
	for name, file := range s.Files {
		if file.Truncated {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	files := make([]SnippetFile, 0, len(names))
	for _, name := range names {
		files = append(files, s.Files[name])
	}
	return files
}
