package dto

type LoginRequest struct {
	SecretKey string `json:"secretKey"`
}

type LoginResponse struct {
	Message string      `json:"message"`
	Users   interface{} `json:"users"`
}

type AuthStatusResponse struct {
	Authenticated bool `json:"authenticated"`
}

type VersionResponse struct {
	Name      string  `json:"name"`
	Version   string  `json:"version"`
	GoVersion string  `json:"goVersion"`
	Platform  string  `json:"platform"`
	Arch      string  `json:"arch"`
	Git       GitInfo `json:"git"`
	StartedAt string  `json:"startedAt"`
}

type GitInfo struct {
	Commit  string `json:"commit,omitempty"`
	Time    string `json:"time,omitempty"`
	IsDirty bool   `json:"isDirty"`
}
