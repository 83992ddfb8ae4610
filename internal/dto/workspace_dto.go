package dto

type FileInfoDTO struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Bytes int    `json:"bytes"`
}

type UploadResponse struct {
	Accepted []FileInfoDTO `json:"accepted"`
	Summary  string        `json:"summary"`
}

type WorkspaceListResponse struct {
	Files []FileInfoDTO `json:"files"`
}
