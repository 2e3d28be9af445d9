package category

// Defaults returns the built-in category set used when the config file does
// not define its own rule table. Order matters: earlier categories win ties.
func Defaults() []*Category {
	return []*Category{
		{Name: "Documents", Folder: "Documents", Enabled: true,
			Extensions: []string{".pdf", ".doc", ".docx", ".txt", ".rtf", ".odt"}},
		{Name: "Images", Folder: "Images", Enabled: true,
			Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".tiff"}},
		{Name: "Videos", Folder: "Videos", Enabled: true,
			Extensions: []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"}},
		{Name: "Audio", Folder: "Audio", Enabled: true,
			Extensions: []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".wma"}},
		{Name: "Archives", Folder: "Archives", Enabled: true,
			Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"}},
		{Name: "Code", Folder: "Code", Enabled: true,
			Extensions: []string{".py", ".js", ".html", ".css", ".cpp", ".java", ".php"}},
		{Name: "Spreadsheets", Folder: "Spreadsheets", Enabled: true,
			Extensions: []string{".xlsx", ".xls", ".csv", ".ods"}},
		{Name: "Presentations", Folder: "Presentations", Enabled: true,
			Extensions: []string{".ppt", ".pptx", ".odp"}},
		{Name: "Executables", Folder: "Executables", Enabled: true,
			Extensions: []string{".exe", ".msi", ".deb", ".dmg", ".app"}},
	}
}
