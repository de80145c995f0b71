package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aquilax/promptbox/auth"
	"github.com/aquilax/promptbox/imagehost"
	"github.com/aquilax/promptbox/queue"
	queuememory "github.com/aquilax/promptbox/queue/memory"
	queuesqlite "github.com/aquilax/promptbox/queue/sqlite"
	"github.com/aquilax/promptbox/remote"
	"github.com/aquilax/promptbox/store"
	storememory "github.com/aquilax/promptbox/store/memory"
	storepostgres "github.com/aquilax/promptbox/store/postgres"
	storesqlite "github.com/aquilax/promptbox/store/sqlite"
	"github.com/gorilla/mux"
)

const sessionCookie = "pb_session"

type PromptBox struct {
	config    *Config
	st        *State
	store     store.Store
	queue     queue.Queue
	rec       *Reconciler
	ctrl      *Controller
	importer  *Importer
	reorderer *Reorderer
	images    imagehost.Uploader
	auth      auth.Provider
	sg        *SpamGuard
	tp        *TransPool
	sessions  *Sessions
	now       func() time.Time
}

type appHandler func(http.ResponseWriter, *http.Request) error

func NewPromptBox() *PromptBox {
	return &PromptBox{now: time.Now}
}

func (pb *PromptBox) Run(args []string) {
	if os.Getenv("GO_ENV") != "" {
		log.SetFlags(0)
	} else {
		log.SetFlags(log.Ldate | log.Ltime | log.LUTC)
	}

	pb.config = NewConfig()
	if err := pb.config.Load(args); err != nil {
		panic(err)
	}

	block, err := time.ParseDuration(pb.config.PostBlockExpire)
	if err != nil {
		log.Fatal(err)
	}
	pb.sg = NewSpamGuard(block)
	pb.tp = NewTransPool(pb.config.Translations)
	pb.sessions = NewSessions()
	pb.st = NewState()

	pb.store = newStore(pb.config)
	if err := pb.store.Open(pb.config.StoreDriver, pb.config.StoreDSN); err != nil {
		log.Fatal(err)
	}
	pb.queue = newQueue(pb.config)
	if err := pb.queue.Open(pb.config.QueueDriver, pb.config.QueueDSN); err != nil {
		log.Fatal(err)
	}

	var remoteClient remote.Client
	if pb.config.SnapshotURL != "" {
		remoteClient = remote.New(pb.config.SnapshotURL, pb.config.ContentsURL, pb.config.SyncToken, nil)
	}
	pb.images = imagehost.NewChain(
		imagehost.NewFileForm(pb.config.ImagePrimaryURL, nil),
		imagehost.NewBase64Form(pb.config.ImageFallbackURL, pb.config.ImageFallbackKey, nil),
	)
	pb.auth = auth.NewStatic(pb.config.AdminID, map[string]auth.Identity{
		pb.config.AdminToken: {ID: pb.config.AdminID, Email: pb.config.AuthorEmail},
	})
	pb.auth.Subscribe(pb.st.SetIdentity)

	pb.rec = NewReconciler(pb.st, pb.store, remoteClient)
	pb.ctrl = NewController(pb.st, pb.queue, pb.rec, pb.sg)
	pb.importer = NewImporter(pb.st, pb.ctrl, pb.rec)
	pb.reorderer = NewReorderer(pb.st, pb.rec)

	pb.rec.Load(context.Background())

	r := pb.router()
	http.Handle("/", r)

	port := os.Getenv("PORT")
	if port == "" {
		port = pb.config.Server
	}
	log.Printf("Starting server at %s", port)
	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}

func (pb *PromptBox) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/gallery", appHandler(pb.galleryHandler).ServeHTTP).Methods("GET")
	r.HandleFunc("/api/sections", appHandler(pb.createSectionHandler).ServeHTTP).Methods("POST")
	r.HandleFunc("/api/sections/{id}", appHandler(pb.editSectionHandler).ServeHTTP).Methods("PUT")
	r.HandleFunc("/api/sections/{id}", appHandler(pb.deleteSectionHandler).ServeHTTP).Methods("DELETE")
	r.HandleFunc("/api/sections/{id}/reveal", appHandler(pb.revealHandler).ServeHTTP).Methods("POST")
	r.HandleFunc("/api/prompts/{id}", appHandler(pb.deletePromptHandler).ServeHTTP).Methods("DELETE")
	r.HandleFunc("/api/tags", appHandler(pb.setTagsHandler).ServeHTTP).Methods("PUT")
	r.HandleFunc("/api/notes", appHandler(pb.setNotesHandler).ServeHTTP).Methods("PUT")

	r.HandleFunc("/api/submissions", appHandler(pb.submitHandler).ServeHTTP).Methods("POST")
	r.HandleFunc("/api/submissions", appHandler(pb.listSubmissionsHandler).ServeHTTP).Methods("GET")
	r.HandleFunc("/api/submissions/{id}/approve", appHandler(pb.approveHandler).ServeHTTP).Methods("POST")
	r.HandleFunc("/api/submissions/{id}", appHandler(pb.rejectHandler).ServeHTTP).Methods("DELETE")
	r.HandleFunc("/api/import", appHandler(pb.importHandler).ServeHTTP).Methods("POST")

	r.HandleFunc("/api/export", appHandler(pb.exportHandler).ServeHTTP).Methods("GET")
	r.HandleFunc("/api/snapshot", appHandler(pb.importSnapshotHandler).ServeHTTP).Methods("POST")
	r.HandleFunc("/api/sync/pull", appHandler(pb.pullHandler).ServeHTTP).Methods("POST")
	r.HandleFunc("/api/sync/push", appHandler(pb.pushHandler).ServeHTTP).Methods("POST")

	r.HandleFunc("/api/favorites", appHandler(pb.listFavoritesHandler).ServeHTTP).Methods("GET")
	r.HandleFunc("/api/favorites", appHandler(pb.addFavoriteHandler).ServeHTTP).Methods("POST")
	r.HandleFunc("/api/favorites/{index}", appHandler(pb.removeFavoriteHandler).ServeHTTP).Methods("DELETE")
	r.HandleFunc("/api/reorder", appHandler(pb.reorderHandler).ServeHTTP).Methods("POST")
	r.HandleFunc("/api/images", appHandler(pb.uploadHandler).ServeHTTP).Methods("POST")

	r.HandleFunc("/api/auth/signin", appHandler(pb.signInHandler).ServeHTTP).Methods("POST")
	r.HandleFunc("/api/auth/signout", appHandler(pb.signOutHandler).ServeHTTP).Methods("POST")
	r.HandleFunc("/api/storage/ack", appHandler(pb.ackStorageHandler).ServeHTTP).Methods("POST")

	r.HandleFunc("/feed.xml", appHandler(pb.feedHandler).ServeHTTP).Methods("GET")
	r.HandleFunc("/sitemap.xml", appHandler(pb.sitemapHandler).ServeHTTP).Methods("GET")

	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./public_html")))
	return r
}

func (fn appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := fn(w, r)
	if err == nil {
		return
	}
	var (
		validation *ValidationError
		notFound   *NotFoundError
		network    *NetworkError
		partial    *PartialApproveError
		httpErr    *HTTPError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: validation.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, apiResponse{Error: notFound.Error()})
	case errors.As(err, &partial):
		// Distinct from a plain failure: the tree already changed.
		writeJSON(w, http.StatusBadGateway, apiResponse{Error: partial.Error()})
	case errors.As(err, &network):
		writeJSON(w, http.StatusBadGateway, apiResponse{Error: network.Error()})
	case errors.As(err, &httpErr):
		writeJSON(w, httpErr.Code, apiResponse{Error: httpErr.Message})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Error: "internal error"})
	}
}

// session finds the viewer's session or starts one, pinning the freshness
// baseline and the restricted-section gate to the cookie's lifetime.
func (pb *PromptBox) session(w http.ResponseWriter, r *http.Request) *Session {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if s := pb.sessions.Get(cookie.Value); s != nil {
			return s
		}
	}
	s := NewSession(pb.st, pb.rec.LastVisit(), pb.tp.Get(pb.config.Language))
	pb.sessions.Add(s)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
	})
	return s
}

func newStore(config *Config) store.Store {
	switch config.StoreDriver {
	case "postgres":
		return storepostgres.New(config.StoreQuota)
	case "memory":
		return storememory.New(config.StoreQuota)
	default:
		return storesqlite.New(config.StoreQuota)
	}
}

func newQueue(config *Config) queue.Queue {
	switch config.QueueDriver {
	case "memory":
		return queuememory.New()
	default:
		return queuesqlite.New()
	}
}
