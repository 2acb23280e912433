package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeText        = "text/"
	MimePDF         = "application/pdf"
	MimeZip         = "application/zip" // docx/pptx 会被识别为 zip
	MimeOctetStream = "application/octet-stream"
	MimeXML         = "text/xml"
)

var (
	AllowedDocumentTypes  = []string{MimePDF, MimeText, MimeZip, MimeOctetStream}
	AllowedDocumentExts   = []string{".pdf", ".txt", ".md", ".doc", ".docx", ".pptx"}
	AllowedMoodleXMLTypes = []string{MimeXML, MimeText, "application/xml"}
)
