package common

// 对外可见的提示文本
const (
	MsgUploadOK        = "File uploaded and processed successfully."
	MsgMissingFile     = "please upload file"
	MsgInvalidFilename = "Invalid file name."
	MsgDuplicate       = "File with this name already exists in the database"
	MsgOnlyPDF         = "Only PDF files are allowed."
	MsgNoText          = "No text extracted from the PDF."
	MsgNoChunks        = "No valid text chunks for embedding."
	MsgUploadFailed    = "Error processing file."

	MsgMissingQuestion = "Please ask me question!"
	MsgDocNotFound     = "Document not found."
	MsgIndexNotFound   = "Document embeddings not found."
	MsgAskFailed       = "Error processing question."
)
