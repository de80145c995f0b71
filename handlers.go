package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aquilax/promptbox/imagehost"
	"github.com/aquilax/promptbox/prompt"
	"github.com/gorilla/mux"
)

const cardsPerPage = 30

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data interface{}) error {
	return writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data})
}

// sectionView is a section as one viewer sees it: restricted sections hide
// their prompts until the viewer passes the confirmation gate.
type sectionView struct {
	ID           prompt.SectionID `json:"id"`
	Title        string           `json:"title"`
	IsCollapsed  bool             `json:"isCollapsed"`
	IsRestricted bool             `json:"isRestricted"`
	Prompts      []promptView     `json:"prompts"`
}

type promptView struct {
	prompt.Prompt
	IsNew  bool   `json:"isNew"`
	Avatar string `json:"avatar"`
}

type galleryView struct {
	Sections       []sectionView `json:"sections"`
	CommonTags     []string      `json:"commonTags"`
	SiteNotesHTML  string        `json:"siteNotesHtml"`
	Pagination     Pages         `json:"pagination"`
	IsAdmin        bool          `json:"isAdmin"`
	LoadError      string        `json:"loadError,omitempty"`
	StorageWarning string        `json:"storageWarning,omitempty"`
}

func (pb *PromptBox) galleryHandler(w http.ResponseWriter, r *http.Request) error {
	session := pb.session(w, r)
	snapshot := pb.st.Snapshot()
	isAdmin := pb.st.IsAdmin()

	query := r.URL.Query().Get("q")
	var selected []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		selected = strings.Split(raw, ",")
	}
	sections := prompt.Filter(snapshot.Sections, query, selected)

	page := getPageNumber(r.URL.Query().Get("page"))
	total := 0
	views := make([]sectionView, 0, len(sections))
	for _, sec := range sections {
		view := sectionView{
			ID:           sec.ID,
			Title:        sec.Title,
			IsCollapsed:  !session.Expanded(sec),
			IsRestricted: sec.IsRestricted,
			Prompts:      []promptView{},
		}
		if !sec.IsRestricted || isAdmin || session.Reveal(sec.ID, false) {
			for _, p := range sec.Prompts {
				view.Prompts = append(view.Prompts, promptView{
					Prompt: p,
					IsNew:  session.IsNew(p.ID),
					Avatar: hfGravatar(p.Contributor),
				})
				total++
			}
		}
		views = append(views, view)
	}
	views = paginateSections(views, page, cardsPerPage)

	return ok(w, galleryView{
		Sections:      views,
		CommonTags:    snapshot.CommonTags,
		SiteNotesHTML: renderMarkdown(snapshot.SiteNotes),
		Pagination: Pagination(PaginationConfig{
			Page:    page + 1,
			PerPage: cardsPerPage,
			Total:   total,
			URL:     "?",
			Param:   "page",
		}),
		IsAdmin:        isAdmin,
		LoadError:      pb.st.LoadError(),
		StorageWarning: pb.st.StorageWarning(),
	})
}

// paginateSections windows the flattened card sequence while keeping the
// section structure, so page boundaries can fall inside a section.
func paginateSections(views []sectionView, page, perPage int) []sectionView {
	skip := page * perPage
	room := perPage
	out := make([]sectionView, 0, len(views))
	for _, view := range views {
		prompts := view.Prompts
		if skip >= len(prompts) {
			skip -= len(prompts)
			view.Prompts = []promptView{}
			out = append(out, view)
			continue
		}
		prompts = prompts[skip:]
		skip = 0
		if len(prompts) > room {
			prompts = prompts[:room]
		}
		room -= len(prompts)
		view.Prompts = prompts
		out = append(out, view)
	}
	return out
}

func (pb *PromptBox) revealHandler(w http.ResponseWriter, r *http.Request) error {
	session := pb.session(w, r)
	var body struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return &ValidationError{Field: "body", Message: "invalid payload"}
	}
	revealed := session.Reveal(mux.Vars(r)["id"], body.Confirmed)
	return ok(w, map[string]bool{"revealed": revealed})
}

func (pb *PromptBox) submitHandler(w http.ResponseWriter, r *http.Request) error {
	var body struct {
		Action   prompt.Action   `json:"action"`
		TargetID prompt.PromptID `json:"targetId"`
		Name     string          `json:"name"` // honeypot
		SubmissionFields
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return &ValidationError{Field: "body", Message: "invalid payload"}
	}
	if inHoneypot(body.Name) {
		// Pretend it worked; bots get nothing to learn from.
		return ok(w, map[string]string{"id": ""})
	}
	id, err := pb.ctrl.CreateSubmission(body.Action, body.TargetID, body.SubmissionFields, remoteHost(r))
	if err != nil {
		return err
	}
	return ok(w, map[string]string{"id": id})
}

func (pb *PromptBox) listSubmissionsHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	subs, err := pb.ctrl.ListPending()
	if err != nil {
		return err
	}
	return ok(w, subs)
}

func (pb *PromptBox) approveHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	var body struct {
		SectionID prompt.SectionID `json:"sectionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return &ValidationError{Field: "body", Message: "invalid payload"}
	}
	return respond(w, pb.ctrl.Approve(mux.Vars(r)["id"], body.SectionID))
}

func (pb *PromptBox) rejectHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	return respond(w, pb.ctrl.Reject(mux.Vars(r)["id"]))
}

func (pb *PromptBox) importHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	var body struct {
		Text      string           `json:"text"`
		SectionID prompt.SectionID `json:"sectionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return &ValidationError{Field: "body", Message: "invalid payload"}
	}
	return respond(w, pb.importer.Import(body.Text, body.SectionID))
}

func (pb *PromptBox) exportHandler(w http.ResponseWriter, r *http.Request) error {
	snapshot := pb.st.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="promptbox-export.json"`)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}

func (pb *PromptBox) importSnapshotHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	var snapshot prompt.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		return &ValidationError{Field: "body", Message: "not a valid snapshot"}
	}
	prompt.Sanitize(&snapshot)
	pb.st.ReplaceSnapshot(snapshot)
	pb.rec.Persist()
	return ok(w, nil)
}

func (pb *PromptBox) pullHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	var body struct {
		Force bool `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return &ValidationError{Field: "body", Message: "invalid payload"}
	}
	return respond(w, pb.rec.PullFromRemote(r.Context(), body.Force))
}

func (pb *PromptBox) pushHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	return respond(w, pb.rec.PushToRemote(r.Context()))
}

type sectionForm struct {
	Title            string `json:"title"`
	DefaultCollapsed bool   `json:"defaultCollapsed"`
	IsRestricted     bool   `json:"isRestricted"`
}

func (pb *PromptBox) createSectionHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	var form sectionForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		return &ValidationError{Field: "body", Message: "invalid payload"}
	}
	if strings.TrimSpace(form.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	sec := prompt.Section{
		ID:               prompt.NewSectionID(pb.now()),
		Title:            strings.TrimSpace(form.Title),
		IsCollapsed:      form.IsRestricted || form.DefaultCollapsed,
		DefaultCollapsed: form.DefaultCollapsed,
		IsRestricted:     form.IsRestricted,
		Prompts:          []prompt.Prompt{},
	}
	pb.st.Update(func(s *State) {
		s.sections = append(s.sections, sec)
	})
	pb.rec.Persist()
	return ok(w, sec)
}

func (pb *PromptBox) editSectionHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	var form sectionForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		return &ValidationError{Field: "body", Message: "invalid payload"}
	}
	id := mux.Vars(r)["id"]
	found := false
	pb.st.Update(func(s *State) {
		si := prompt.FindSection(s.sections, id)
		if si == -1 {
			return
		}
		found = true
		if strings.TrimSpace(form.Title) != "" {
			s.sections[si].Title = strings.TrimSpace(form.Title)
		}
		s.sections[si].DefaultCollapsed = form.DefaultCollapsed
		s.sections[si].IsRestricted = form.IsRestricted
	})
	if !found {
		return &NotFoundError{Kind: "section", ID: id}
	}
	pb.rec.Persist()
	return ok(w, nil)
}

func (pb *PromptBox) deleteSectionHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	id := mux.Vars(r)["id"]
	found := false
	pb.st.Update(func(s *State) {
		si := prompt.FindSection(s.sections, id)
		if si == -1 {
			return
		}
		found = true
		s.sections = append(s.sections[:si], s.sections[si+1:]...)
	})
	if !found {
		return &NotFoundError{Kind: "section", ID: id}
	}
	pb.rec.Persist()
	return ok(w, nil)
}

func (pb *PromptBox) deletePromptHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	id := mux.Vars(r)["id"]
	removed := false
	pb.st.Update(func(s *State) {
		removed = prompt.RemovePrompt(s.sections, id)
	})
	if !removed {
		return &NotFoundError{Kind: "prompt", ID: id}
	}
	pb.rec.Persist()
	return ok(w, nil)
}

func (pb *PromptBox) setTagsHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	var body struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return &ValidationError{Field: "body", Message: "invalid payload"}
	}
	// Removing a tag from the palette never strips it from prompts.
	pb.st.Update(func(s *State) {
		s.commonTags = prompt.DedupeTags(body.Tags)
	})
	pb.rec.Persist()
	return ok(w, nil)
}

func (pb *PromptBox) setNotesHandler(w http.ResponseWriter, r *http.Request) error {
	if err := pb.requireAdmin(); err != nil {
		return err
	}
	var body struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return &ValidationError{Field: "body", Message: "invalid payload"}
	}
	pb.st.Update(func(s *State) {
		s.siteNotes = body.Notes
	})
	pb.rec.Persist()
	return ok(w, nil)
}

func (pb *PromptBox) listFavoritesHandler(w http.ResponseWriter, r *http.Request) error {
	return ok(w, pb.st.Favorites())
}

// addFavoriteHandler forks the prompt into the favorites list: later edits to
// the source never reach the copy and vice versa.
func (pb *PromptBox) addFavoriteHandler(w http.ResponseWriter, r *http.Request) error {
	var body struct {
		PromptID prompt.PromptID `json:"promptId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return &ValidationError{Field: "body", Message: "invalid payload"}
	}
	found := false
	pb.st.Update(func(s *State) {
		si, pi := prompt.FindPrompt(s.sections, body.PromptID)
		if si == -1 {
			return
		}
		found = true
		s.favorites = append(s.favorites, s.sections[si].Prompts[pi].Clone())
	})
	if !found {
		return &NotFoundError{Kind: "prompt", ID: body.PromptID}
	}
	pb.rec.Persist()
	return ok(w, nil)
}

func (pb *PromptBox) removeFavoriteHandler(w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		return &ValidationError{Field: "index", Message: "not a number"}
	}
	removed := false
	pb.st.Update(func(s *State) {
		if index < 0 || index >= len(s.favorites) {
			return
		}
		removed = true
		s.favorites = append(s.favorites[:index], s.favorites[index+1:]...)
	})
	if !removed {
		return &NotFoundError{Kind: "favorite", ID: strconv.Itoa(index)}
	}
	pb.rec.Persist()
	return ok(w, nil)
}

type reorderRequest struct {
	Kind          DragKind         `json:"kind"`
	SectionID     prompt.SectionID `json:"sectionId"`
	PromptID      prompt.PromptID  `json:"promptId"`
	FavoriteIndex int              `json:"favoriteIndex"`
	Target        struct {
		SectionID     prompt.SectionID `json:"sectionId"`
		PromptID      prompt.PromptID  `json:"promptId"`
		FavoriteIndex int              `json:"favoriteIndex"`
	} `json:"target"`
}

// reorderHandler runs a full drag in one request: start, then drop on the
// named target. A drag that may not start or a drop that hits nothing leaves
// the state untouched and still reports success, mirroring the engine's
// no-op semantics.
func (pb *PromptBox) reorderHandler(w http.ResponseWriter, r *http.Request) error {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &ValidationError{Field: "body", Message: "invalid payload"}
	}
	started := false
	switch req.Kind {
	case DragSection:
		started = pb.reorderer.StartSection(req.SectionID)
	case DragPrompt:
		started = pb.reorderer.StartPrompt(req.PromptID, req.SectionID)
	case DragFavorite:
		started = pb.reorderer.StartFavorite(req.FavoriteIndex)
	default:
		return &ValidationError{Field: "kind", Message: "unknown drag kind"}
	}
	if !started {
		return &HTTPError{Message: "forbidden", Code: http.StatusForbidden}
	}
	switch {
	case req.Kind == DragFavorite:
		pb.reorderer.DropOnFavorite(req.Target.FavoriteIndex)
	case req.Kind == DragPrompt && req.Target.PromptID != "":
		pb.reorderer.DropOnPrompt(req.Target.PromptID)
	case req.Target.SectionID != "":
		pb.reorderer.DropOnSection(req.Target.SectionID)
	default:
		pb.reorderer.Cancel()
	}
	return ok(w, nil)
}

func (pb *PromptBox) uploadHandler(w http.ResponseWriter, r *http.Request) error {
	file, header, err := r.FormFile("image")
	if err != nil {
		return &ValidationError{Field: "image", Message: "missing file"}
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	hosted, err := pb.images.Upload(r.Context(), header.Filename, imagehost.Compress(data))
	if err != nil {
		return &NetworkError{Op: "image upload", Err: err}
	}
	return ok(w, map[string]string{"url": hosted})
}

func (pb *PromptBox) signInHandler(w http.ResponseWriter, r *http.Request) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return &ValidationError{Field: "body", Message: "invalid payload"}
	}
	identity, err := pb.auth.SignIn(body.Token)
	if err != nil {
		return &HTTPError{Err: err, Message: "sign in failed", Code: http.StatusUnauthorized}
	}
	return ok(w, map[string]interface{}{
		"identity": identity.Email,
		"isAdmin":  pb.st.IsAdmin(),
	})
}

func (pb *PromptBox) signOutHandler(w http.ResponseWriter, r *http.Request) error {
	pb.auth.SignOut()
	return ok(w, nil)
}

func (pb *PromptBox) ackStorageHandler(w http.ResponseWriter, r *http.Request) error {
	pb.st.AcknowledgeStorageWarning()
	return ok(w, nil)
}

func (pb *PromptBox) requireAdmin() error {
	if !pb.st.IsAdmin() {
		return &HTTPError{Message: "forbidden", Code: http.StatusForbidden}
	}
	return nil
}

func respond(w http.ResponseWriter, err error) error {
	if err != nil {
		return err
	}
	return ok(w, nil)
}

func remoteHost(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i != -1 {
		host = host[:i]
	}
	return host
}

func getPageNumber(pageStr string) int {
	if pageStr == "" {
		return 0
	}
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		return 0
	}
	return page - 1
}
