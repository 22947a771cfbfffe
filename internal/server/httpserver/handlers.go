package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/avelkine/filevault/internal/model"
	"github.com/avelkine/filevault/internal/service"
)

// fileView is the wire shape of a FileNode. The blob reference never appears.
type fileView struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID string `json:"parentId"`
}

func toFileView(f *model.FileNode) fileView {
	parent := service.RootParent
	if f.ParentID.Valid {
		parent = f.ParentID.UUID.String()
	}
	return fileView{
		ID:       f.ID.String(),
		UserID:   f.UserID.String(),
		Name:     f.Name,
		Type:     string(f.Kind),
		IsPublic: f.IsPublic,
		ParentID: parent,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, map[string]bool{
		"redis": s.cache.Ping(ctx) == nil,
		"db":    s.db.Ping(ctx) == nil,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Counts(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"users": st.Users, "files": st.Files})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid json"})
		return
	}
	u, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": u.ID.String(), "email": u.Email})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}
	token, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), r.Header.Get(tokenHeader)); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	u, err := s.auth.UserByID(r.Context(), userID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": u.ID.String(), "email": u.Email})
}

func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())

	var req struct {
		Name     string          `json:"name"`
		Type     string          `json:"type"`
		ParentID json.RawMessage `json:"parentId"`
		IsPublic bool            `json:"isPublic"`
		Data     *string         `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid json"})
		return
	}

	nf := model.NewFile{
		Name:     req.Name,
		Kind:     model.Kind(req.Type),
		ParentID: parentField(req.ParentID),
		IsPublic: req.IsPublic,
	}
	if req.Data != nil {
		b, err := base64.StdEncoding.DecodeString(*req.Data)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid data"})
			return
		}
		nf.Data, nf.HasData = b, true
	}

	f, err := s.files.Create(r.Context(), userID, nf)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFileView(f))
}

// parentField normalizes the parentId payload field, which clients send as
// either a string id or the numeric root sentinel 0.
func parentField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return string(raw)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	nodes, err := s.files.List(r.Context(), userID, r.URL.Query().Get("parentId"), page)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	views := make([]fileView, 0, len(nodes))
	for i := range nodes {
		views = append(views, toFileView(&nodes[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	f, err := s.files.GetByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileView(f))
}

func (s *Server) handlePublish(isPublic bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromCtx(r.Context())
		f, err := s.files.SetVisibility(r.Context(), userID, r.PathValue("id"), isPublic)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toFileView(f))
	}
}

// handleFileData is the one read path usable without a session. A token is
// honored when present; a bad or absent one simply leaves the caller
// unauthenticated so private nodes answer 404.
func (s *Server) handleFileData(w http.ResponseWriter, r *http.Request) {
	var authed bool
	userID, err := s.auth.Resolve(r.Context(), r.Header.Get(tokenHeader))
	if err == nil {
		authed = true
	}

	b, f, err := s.files.Content(r.Context(), userID, authed, r.PathValue("id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}

	ct := mime.TypeByExtension(filepath.Ext(f.Name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("content-type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
