package httpapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"taskdeck.org/internal/audit"
	"taskdeck.org/internal/identity"
	"taskdeck.org/internal/media"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type oauthLoginRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ident, err := a.identities.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "identity.register", map[string]any{
		"identity": ident.ID,
		"username": ident.Username,
	})
	writeSuccess(w, http.StatusCreated, "User registered successfully", ident, nil)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ident, token, expiresAt, err := a.identities.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	a.setSessionCookie(w, token, expiresAt)
	_ = audit.LogEvent(r.Context(), "identity.login", map[string]any{
		"identity": ident.ID,
	})
	writeSuccess(w, http.StatusOK, "Login successful", ident, map[string]any{"token": token})
}

func (a *API) handleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req oauthLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ident, token, expiresAt, err := a.identities.OAuthLogin(r.Context(), req.DisplayName, req.Email, req.PhotoURL)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	a.setSessionCookie(w, token, expiresAt)
	_ = audit.LogEvent(r.Context(), "identity.oauth_login", map[string]any{
		"identity": ident.ID,
	})
	writeSuccess(w, http.StatusOK, "Login successful", ident, map[string]any{"token": token})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}

	// Server-side revocation: outstanding tokens die with the version bump.
	if err := a.identities.Logout(r.Context(), sess.IdentityID); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	a.clearSessionCookie(w)
	_ = audit.LogEvent(r.Context(), "identity.logout", nil)
	writeSuccess(w, http.StatusOK, "Logged out successfully", nil, nil)
}

func (a *API) handleMyProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	ident, err := a.identities.Get(r.Context(), sess.IdentityID)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Profile fetched successfully", ident, nil)
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}

	form, err := parseMultipart(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ident, err := a.identities.UpdateProfile(r.Context(), sess.IdentityID, identityProfileUpdate(form))
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "identity.update_profile", map[string]any{
		"identity": ident.ID,
	})
	writeSuccess(w, http.StatusOK, "Profile updated successfully", ident, nil)
}

func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.identities.ForgotPassword(r.Context(), req.Email); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Password reset email sent", nil, nil)
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	token, ok := pathSuffix(r.URL.Path, apiPrefix+"/users/reset-password/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.identities.ResetPassword(r.Context(), token, req.NewPassword); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "identity.reset_password", nil)
	writeSuccess(w, http.StatusOK, "Password has been reset", nil, nil)
}

func (a *API) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}

	if err := a.identities.DeleteCascade(r.Context(), sess.IdentityID); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	a.clearSessionCookie(w)
	_ = audit.LogEvent(r.Context(), "identity.delete_account", map[string]any{
		"identity": sess.IdentityID,
	})
	writeSuccess(w, http.StatusOK, "Account deleted successfully", nil, nil)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	_, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathSuffix(r.URL.Path, apiPrefix+"/users/delete-user/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if err := a.identities.DeleteCascade(r.Context(), id); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "identity.delete_user", map[string]any{
		"identity": id,
	})
	writeSuccess(w, http.StatusOK, "User deleted successfully", nil, nil)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := sessionOrFail(w, r); !ok {
		return
	}
	id, ok := pathSuffix(r.URL.Path, apiPrefix+"/users/user/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	ident, err := a.identities.Get(r.Context(), id)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User fetched successfully", ident, nil)
}

func (a *API) handleAllUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	idents, err := a.identities.List(r.Context())
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Users fetched successfully", idents, map[string]any{
		"count": len(idents),
	})
}

func (a *API) handleDirectory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	entries, err := a.identities.Directory(r.Context())
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Users fetched successfully", entries, nil)
}

func identityProfileUpdate(form multipartForm) identity.ProfileUpdate {
	return identity.ProfileUpdate{
		Username:    form.value("username"),
		OldPassword: form.value("oldPassword"),
		NewPassword: form.value("newPassword"),
		Image:       form.file,
	}
}

// --- multipart helpers ---

const multipartMaxMemory = 8 << 20

type multipartForm struct {
	values map[string]string
	file   *media.File
}

func (f multipartForm) value(key string) string { return f.values[key] }

func (f multipartForm) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// parseMultipart reads form values plus the optional "file" upload.
func parseMultipart(r *http.Request) (multipartForm, error) {
	if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
		return multipartForm{}, err
	}
	form := multipartForm{values: map[string]string{}}
	for key, vals := range r.MultipartForm.Value {
		if len(vals) > 0 {
			form.values[key] = strings.TrimSpace(vals[0])
		}
	}
	if headers := r.MultipartForm.File["file"]; len(headers) > 0 {
		file, err := readUpload(headers[0])
		if err != nil {
			return multipartForm{}, err
		}
		form.file = &file
	}
	return form, nil
}

func readUpload(header *multipart.FileHeader) (media.File, error) {
	src, err := header.Open()
	if err != nil {
		return media.File{}, err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return media.File{}, err
	}
	return media.File{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
