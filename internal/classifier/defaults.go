package classifier

// Others receives files whose extension no category claims
const Others = "Others"

// DefaultCategories returns the built-in category list in match order
func DefaultCategories() []Category {
	return []Category{
		{Name: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".heic", ".svg", ".tiff", ".ico"}},
		{Name: "Videos", Extensions: []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm", ".m4v", ".3gp", ".ogv"}},
		{Name: "Audio", Extensions: []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a", ".wma", ".opus"}},
		{Name: "Documents", Extensions: []string{".pdf", ".doc", ".docx", ".txt", ".rtf", ".odt", ".xls", ".xlsx", ".ppt", ".pptx"}},
		{Name: "Archives", Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz", ".lzma"}},
		{Name: "Code", Extensions: []string{".py", ".js", ".html", ".css", ".java", ".cpp", ".c", ".php", ".rb", ".go", ".rs"}},
		{Name: "APK", Extensions: []string{".apk", ".xapk", ".aab"}},
		{Name: "Fonts", Extensions: []string{".ttf", ".otf", ".woff", ".woff2"}},
		{Name: "Ebooks", Extensions: []string{".epub", ".mobi", ".azw", ".azw3"}},
	}
}

// Default returns the built-in table at version 1
func Default() *Table {
	t, err := NewTable(1, DefaultCategories())
	if err != nil {
		panic("classifier: invalid built-in categories: " + err.Error())
	}
	return t
}
