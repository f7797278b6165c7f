package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"listingmatch/internal/marketplace"
	"listingmatch/internal/model"
	"listingmatch/internal/observability"
	"listingmatch/internal/review"
	"listingmatch/internal/session"
	"listingmatch/internal/table"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if !s.gate.Enabled() || sessionFrom(r).Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login", pageData{Title: "Login", AuthEnabled: true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.gate.Verify(r.FormValue("password")) {
		log.Printf("[Web] failed login from %s", r.RemoteAddr)
		s.render(w, HTTPStatus(ErrWrongPassword), "login", pageData{
			Title:       "Login",
			Error:       "Wrong password.",
			AuthEnabled: true,
		})
		return
	}

	if err := s.login(w, r, sessionFrom(r).ID); err != nil {
		s.fail(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// login moves the session to a new ID before marking it authenticated, so an
// ID known before login is dropped.
func (s *Server) login(w http.ResponseWriter, r *http.Request, id string) error {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	ctx := r.Context()
	old, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	sess := old.Renew()
	sess.Authenticated = true
	if err := s.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := s.store.Delete(ctx, old.ID); err != nil {
		log.Printf("[Session] delete %s: %v", old.ID, err)
	}
	if err := s.setCookie(w, sess.ID); err != nil {
		return fmt.Errorf("failed to set cookie: %w", err)
	}
	log.Printf("[Session] %s logged in as %s", old.ID, sess.ID)
	return nil
}

// handleIndex shows the upload form until a table is mapped, then the review
// page for ?page=N.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !sess.Ready() {
		s.render(w, http.StatusOK, "upload", s.uploadData(sess, ""))
		return
	}

	page := sess.Page
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = p
	}
	page = sess.Pager().Clamp(page)
	if page != sess.Page {
		updated, err := s.update(r.Context(), sess.ID, func(stored *session.Session) error {
			stored.Page = page
			return nil
		})
		if err != nil {
			s.fail(w, err)
			return
		}
		sess = updated
	}

	s.render(w, http.StatusOK, "review", s.reviewData(r, sess))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		observability.Uploads.WithLabelValues("error").Inc()
		s.render(w, uploadStatus(err), "upload", s.uploadData(sess, "No file received: "+err.Error()))
		return
	}
	defer file.Close()

	t, err := table.LoadFile(header.Filename, file)
	if err != nil {
		observability.Uploads.WithLabelValues("error").Inc()
		log.Printf("[Web] upload %q rejected: %v", header.Filename, err)
		s.render(w, uploadStatus(err), "upload", s.uploadData(sess, "Could not read the file: "+err.Error()))
		return
	}

	_, err = s.update(r.Context(), sess.ID, func(stored *session.Session) error {
		stored.Load(header.Filename, t)
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	observability.Uploads.WithLabelValues("ok").Inc()
	log.Printf("[Web] loaded %q: %d rows, %d columns", header.Filename, t.Len(), len(t.Headers))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// uploadStatus treats every unclassified upload error as a bad request.
func uploadStatus(err error) int {
	if status := HTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusBadRequest
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.Table == nil {
		s.fail(w, ErrNoTable)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.fail(w, &review.ErrValidation{Field: "form", Message: err.Error()})
		return
	}

	mapping, settings := formSettings(r)
	err := review.ValidateMapping(mapping, sess.Table)
	if err == nil {
		err = review.ValidateSettings(settings)
	}
	if err != nil {
		data := s.uploadData(sess, err.Error())
		data.Mapping, data.Settings = mapping, settings
		s.render(w, HTTPStatus(err), "upload", data)
		return
	}

	_, err = s.update(r.Context(), sess.ID, func(stored *session.Session) error {
		if stored.Table == nil {
			return ErrNoTable
		}
		stored.Mapping = &mapping
		stored.Settings = settings
		stored.Page = stored.Pager().Clamp(stored.Page)
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func formSettings(r *http.Request) (model.ColumnMapping, model.Settings) {
	mapping := model.ColumnMapping{
		ASIN:             r.PostFormValue("asin_col"),
		WholesaleImage:   r.PostFormValue("wholesale_col"),
		Marketplace:      r.PostFormValue("marketplace_col"),
		MarketplaceImage: r.PostFormValue("marketplace_image_col"),
		ProductURL:       r.PostFormValue("product_url_col"),
	}
	for _, c := range r.PostForm["extra"] {
		if c != "" {
			mapping.Extra = append(mapping.Extra, c)
		}
	}

	size, _ := strconv.Atoi(r.PostFormValue("page_size"))
	settings := model.Settings{
		Marketplace:           marketplace.Normalize(r.PostFormValue("marketplace")),
		Suffix:                strings.TrimSpace(r.PostFormValue("suffix")),
		PageSize:              size,
		ShowMarketplaceImages: r.PostFormValue("show_marketplace_images") != "",
		ShowWholesaleImages:   r.PostFormValue("show_wholesale_images") != "",
	}
	return mapping, settings
}

type matchResponse struct {
	Row   int  `json:"row"`
	Match bool `json:"match"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(r.FormValue("row"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "row must be an integer")
		return
	}
	value, err := strconv.ParseBool(r.FormValue("value"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "value must be true or false")
		return
	}

	_, err = s.update(r.Context(), sessionFrom(r).ID, func(stored *session.Session) error {
		if stored.Table == nil {
			return ErrNoTable
		}
		// A review page left open across an upload must not mark the new file.
		if stored.Mapping == nil {
			return ErrNoMapping
		}
		if row < 0 || row >= stored.Table.Len() {
			return fmt.Errorf("%w: %d", ErrBadRow, row)
		}
		stored.Matches.Set(row, value)
		return nil
	})
	if err != nil {
		errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	observability.MatchToggles.Inc()
	jsonResponse(w, http.StatusOK, matchResponse{Row: row, Match: value})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("confirm") != "yes" {
		s.fail(w, &review.ErrValidation{Field: "confirm", Message: "reset requires confirm=yes"})
		return
	}
	_, err := s.update(r.Context(), sessionFrom(r).ID, func(stored *session.Session) error {
		stored.Matches.Reset()
		stored.Replaced = false
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.Table == nil {
		s.fail(w, ErrNoTable)
		return
	}

	b, err := table.ExportBytes(sess.Table, sess.Matches)
	if err != nil {
		s.fail(w, fmt.Errorf("failed to export: %w", err))
		return
	}
	observability.Exports.Inc()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", table.ExportFileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) uploadData(sess *session.Session, errMsg string) pageData {
	data := pageData{
		Title:       "Upload",
		Error:       errMsg,
		AuthEnabled: s.gate.Enabled(),
		Settings:    sess.Settings,
		Markets:     marketplace.Codes(),
		PageSizes:   review.PageSizes,
		FileName:    sess.FileName,
	}
	if sess.Table != nil {
		data.Headers = sess.Table.Headers
		data.Total = sess.Table.Len()
		data.Mapping = review.GuessMapping(sess.Table)
		if sess.Mapping != nil {
			data.Mapping = *sess.Mapping
		}
	}
	return data
}

func (s *Server) reviewData(r *http.Request, sess *session.Session) pageData {
	data := s.uploadData(sess, "")
	data.Title = "Review"

	in := review.PageInput{
		Table:    sess.Table,
		Mapping:  *sess.Mapping,
		Settings: sess.Settings,
		Matches:  sess.Matches,
		Page:     sess.Page,
	}
	in.Lookups = review.ResolveImages(r.Context(), s.lookup, in)
	data.Rows = review.RenderPage(in)

	pager := sess.Pager()
	start, end := pager.Window(sess.Page)
	data.Page = sess.Page
	data.PageCount = pager.PageCount()
	data.Start, data.End = start+1, end
	if start == end {
		data.Start = 0
	}
	if sess.Page > 1 {
		data.Prev = sess.Page - 1
	}
	if sess.Page < data.PageCount {
		data.Next = sess.Page + 1
	}
	data.Matched = sess.Matches.Matched(data.Total)

	needsLookup := sess.Settings.ShowMarketplaceImages && sess.Mapping.MarketplaceImage == ""
	if needsLookup && !s.lookup.Available() {
		data.Warnings = append(data.Warnings, "Image lookup is not configured (KEEPA_KEY missing): marketplace images will stay empty.")
	} else {
		data.Warnings = append(data.Warnings, review.Warnings(in.Lookups)...)
	}
	if sess.Replaced && sess.Matches.Len() > 0 {
		data.Warnings = append(data.Warnings, "A new file was loaded while MATCH decisions from the previous one were still set. They apply by row position; use Reset MATCH to clear them.")
	}
	if sess.Matches.OutOfRange(data.Total) {
		data.Warnings = append(data.Warnings, "Some MATCH decisions refer to rows beyond the end of this file and will not be exported.")
	}
	return data
}

// fail answers a form request with a plain error page.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[Web] %v", err)
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[Web] encode response: %v", err)
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}
