package web

import (
	"errors"
	"net/http"

	"github.com/bluescreen10/voxara/auth"
	"github.com/bluescreen10/voxara/httpx"
	"github.com/bluescreen10/voxara/media"
)

const (
	appLayout  = "layouts/app"
	rootLayout = "layouts/root"
)

type signInForm struct {
	Email    string `form:"email,trim"`
	Password string `form:"password"`
}

type createForm struct {
	Transcript string `form:"transcript,trim"`
	PhotoKey   string `form:"photo_key,trim"`
	VoiceKey   string `form:"voice_key,trim"`
	VoiceURL   string `form:"voice_url,trim"`
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	vals, _ := h.page(w, r)
	h.render(w, r, http.StatusOK, "pages/home", vals, appLayout, rootLayout)
}

func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	vals, _ := h.page(w, r)
	vals["Form"] = createForm{}
	vals["CanImport"] = h.importer != nil
	h.render(w, r, http.StatusOK, "pages/create", vals, appLayout, rootLayout)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	vals, p := h.page(w, r)
	vals["CanImport"] = h.importer != nil

	var form createForm
	if err := httpx.ParseBody(r, &form); err != nil {
		vals["Form"] = form
		vals["Error"] = p.Sprintf("Transcript and photo key are required.")
		h.render(w, r, http.StatusBadRequest, "pages/create", vals, appLayout, rootLayout)
		return
	}
	vals["Form"] = form

	voiceKey := form.VoiceKey
	if form.VoiceURL != "" {
		if h.importer == nil || voiceKey != "" {
			vals["Error"] = p.Sprintf("Use either a voice key or a voice sample URL.")
			h.render(w, r, http.StatusBadRequest, "pages/create", vals, appLayout, rootLayout)
			return
		}

		imported, err := h.importer.ImportFile(r.Context(), media.ImportRequest{URL: form.VoiceURL})
		if err != nil {
			h.logger.ErrorContext(r.Context(), "import voice sample", "error", err)
			vals["Error"] = p.Sprintf("Voice sample import failed, please try again.")
			h.render(w, r, http.StatusBadGateway, "pages/create", vals, appLayout, rootLayout)
			return
		}
		voiceKey = imported.Key
	}

	res, err := h.creator.Create(r.Context(), form.Transcript, form.PhotoKey, voiceKey)
	if errors.Is(err, media.ErrInvalidRequest) {
		vals["Error"] = p.Sprintf("Transcript and photo key are required.")
		h.render(w, r, http.StatusBadRequest, "pages/create", vals, appLayout, rootLayout)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "create video", "error", err)
		vals["Error"] = p.Sprintf("Video generation failed, please try again.")
		h.render(w, r, http.StatusBadGateway, "pages/create", vals, appLayout, rootLayout)
		return
	}

	h.sessions.Get(r).Set(flashKey, p.Sprintf("Video created: %s", res.VideoKey))
	http.Redirect(w, r, "/create", http.StatusSeeOther)
}

func (h *Handler) signInForm(w http.ResponseWriter, r *http.Request) {
	vals, _ := h.page(w, r)
	h.render(w, r, http.StatusOK, "pages/sign-in", vals, rootLayout)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	vals, p := h.page(w, r)

	var form signInForm
	err := httpx.ParseBody(r, &form)
	vals["Email"] = form.Email
	if err != nil || form.Email == "" || form.Password == "" {
		vals["Error"] = p.Sprintf("Email and password are required.")
		h.render(w, r, http.StatusBadRequest, "pages/sign-in", vals, rootLayout)
		return
	}

	id, err := h.accounts.Authenticate(r.Context(), form.Email, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.logger.InfoContext(r.Context(), "sign in rejected", "email", form.Email)
		vals["Error"] = p.Sprintf("Invalid email or password.")
		h.render(w, r, http.StatusUnauthorized, "pages/sign-in", vals, rootLayout)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "authenticate", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sess := h.sessions.Get(r)
	auth.SignIn(sess, id)
	sess.Set(flashKey, p.Sprintf("Signed in as %s", id.Email))
	h.logger.InfoContext(r.Context(), "signed in", "user_id", id.UserID)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	auth.SignOut(h.sessions.Get(r))
	http.Redirect(w, r, auth.DefaultSignInPath, http.StatusSeeOther)
}
