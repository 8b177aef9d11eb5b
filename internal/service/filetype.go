package service

import (
	"strings"

	"labrooms/internal/model"
)

// categoryExtensions lists filename suffixes per category. Classification
// picks the longest matching suffix across all categories, so ".tar.gz"
// wins over ".gz" and multi-part suffixes stay unambiguous.
var categoryExtensions = map[string][]string{
	model.FileCategoryImage: {
		".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp", ".ico",
	},
	model.FileCategoryPDF: {
		".pdf",
	},
	model.FileCategoryDocument: {
		".doc", ".docx", ".odt", ".rtf", ".ppt", ".pptx", ".xls", ".xlsx", ".ods", ".odp",
	},
	model.FileCategoryText: {
		".txt", ".md", ".csv", ".log",
	},
	model.FileCategoryArchive: {
		".zip", ".tar", ".gz", ".tar.gz", ".tgz", ".rar", ".7z", ".bz2",
	},
	model.FileCategoryCode: {
		".go", ".js", ".ts", ".jsx", ".tsx", ".py", ".java", ".c", ".h", ".cpp",
		".cs", ".rb", ".rs", ".php", ".sh", ".html", ".css", ".json", ".yaml", ".yml",
		".xml", ".sql",
	},
}

// ClassifyFile derives the file type category from the filename extension,
// falling back to the MIME type, then to "other".
func ClassifyFile(contentType, filename string) string {
	name := strings.ToLower(filename)

	best := ""
	bestLen := 0
	for category, exts := range categoryExtensions {
		for _, ext := range exts {
			if len(ext) > bestLen && strings.HasSuffix(name, ext) {
				best = category
				bestLen = len(ext)
			}
		}
	}
	if best != "" {
		return best
	}

	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return model.FileCategoryImage
	case ct == "application/pdf":
		return model.FileCategoryPDF
	case strings.HasPrefix(ct, "text/"):
		return model.FileCategoryText
	case strings.Contains(ct, "zip"), strings.Contains(ct, "tar"), strings.Contains(ct, "compress"):
		return model.FileCategoryArchive
	case strings.Contains(ct, "msword"), strings.Contains(ct, "officedocument"), strings.Contains(ct, "opendocument"):
		return model.FileCategoryDocument
	case strings.Contains(ct, "json"), strings.Contains(ct, "javascript"), strings.Contains(ct, "xml"):
		return model.FileCategoryCode
	}
	return model.FileCategoryOther
}
