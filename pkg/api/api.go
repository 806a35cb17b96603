package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"censorship/pkg/censor"
	"censorship/pkg/metrics"
	"censorship/pkg/models"
	"censorship/pkg/storage"
)

var ErrNoCensor = fmt.Errorf("censor is required")

type API struct {
	ServiceName string
	// WordsFile is the list reloaded by POST /words/reload. Empty disables reloading.
	WordsFile     string
	WordsEncoding string

	c  *censor.Censor
	db storage.Store
	r  *mux.Router
	kw *kafka.Writer

	// mu serializes word-list mutations so a failed save can be rolled back.
	mu sync.Mutex
}

// New creates the check service. db and kafkaWriter are optional.
func New(name string, c *censor.Censor, db storage.Store, kafkaWriter *kafka.Writer) (*API, error) {
	if c == nil {
		return nil, ErrNoCensor
	}

	api := API{
		ServiceName: name,
		c:           c,
		db:          db,
		r:           mux.NewRouter(),
		kw:          kafkaWriter,
	}
	api.endpoints()

	return &api, nil
}

func (api *API) Router() *mux.Router {
	return api.r
}

func (api *API) endpoints() {
	api.r.Use(api.requestIDMiddleware)
	api.r.Use(api.headerMiddleware)

	if api.kw != nil {
		api.r.Use(api.loggingMiddleware(api.kw))
	}

	api.r.HandleFunc("/check", api.checkHandler).Methods(http.MethodPost)
	api.r.HandleFunc("/words", api.wordsHandler).Methods(http.MethodGet)
	api.r.HandleFunc("/words", api.replaceWordsHandler).Methods(http.MethodPut)
	api.r.HandleFunc("/words", api.extendWordsHandler).Methods(http.MethodPatch)
	api.r.HandleFunc("/words/reload", api.reloadWordsHandler).Methods(http.MethodPost)
	api.r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
}

func (api *API) checkHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))
	defer r.Body.Close()

	var comment models.Comment
	if err := json.NewDecoder(r.Body).Decode(&comment); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Debugf("[checkHandler][%s] failed to decode request body: %v", sID, err)
		return
	}

	start := time.Now()
	profane := api.c.Contains(comment.Text)
	metrics.ObserveCheck(profane, time.Since(start).Seconds())

	status := http.StatusOK
	if profane {
		status = http.StatusUnprocessableEntity
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.CheckResult{Profane: profane}); err != nil {
		log.Errorf("[checkHandler][%s] failed to encode response: %v", sID, err)
		return
	}
	log.Debugf("[checkHandler][%s] comment checked, profane: %v", sID, profane)
}

func (api *API) wordsHandler(w http.ResponseWriter, r *http.Request) {
	api.writeWords(w, r)
}

func (api *API) replaceWordsHandler(w http.ResponseWriter, r *http.Request) {
	words, ok := decodeWords(w, r, "replaceWordsHandler")
	if !ok {
		return
	}
	api.update(w, r, "replace", func() error { return api.c.Replace(words) })
}

func (api *API) extendWordsHandler(w http.ResponseWriter, r *http.Request) {
	words, ok := decodeWords(w, r, "extendWordsHandler")
	if !ok {
		return
	}
	api.update(w, r, "extend", func() error { return api.c.Extend(words) })
}

func (api *API) reloadWordsHandler(w http.ResponseWriter, r *http.Request) {
	if api.WordsFile == "" {
		http.Error(w, "No word file configured", http.StatusConflict)
		log.Debugf("[reloadWordsHandler][%s] reload requested without a word file", shorten(GetRequestID(r.Context())))
		return
	}
	api.update(w, r, "reload", func() error { return api.c.LoadFromFile(api.WordsFile, api.WordsEncoding) })
}

// update applies mutate and persists the resulting list. If persisting fails the
// previous list is restored.
func (api *API) update(w http.ResponseWriter, r *http.Request, op string, mutate func() error) {
	sID := shorten(GetRequestID(r.Context()))

	api.mu.Lock()
	defer api.mu.Unlock()

	prev := api.c.Words()
	if err := mutate(); err != nil {
		metrics.ObserveUpdate(op, err, len(prev))
		if errors.Is(err, censor.ErrInvalidPattern) || errors.Is(err, censor.ErrConfig) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			log.Debugf("[%s][%s] rejected word list: %v", op, sID, err)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[%s][%s] failed to update word list: %v", op, sID, err)
		return
	}

	words := api.c.Words()
	if api.db != nil {
		if err := api.db.SaveWords(r.Context(), words); err != nil {
			if rbErr := api.c.Replace(prev); rbErr != nil {
				log.Errorf("[%s][%s] failed to roll back word list: %v", op, sID, rbErr)
			}
			metrics.ObserveUpdate(op, err, len(prev))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			log.Errorf("[%s][%s] failed to save word list: %v", op, sID, err)
			return
		}
	}

	metrics.ObserveUpdate(op, nil, len(words))
	log.Infof("[%s][%s] word list updated, %d entries", op, sID, len(words))
	api.writeWords(w, r)
}

func (api *API) writeWords(w http.ResponseWriter, r *http.Request) {
	list := models.WordList{Mode: string(api.c.Mode()), Words: api.c.Words()}
	if err := json.NewEncoder(w).Encode(list); err != nil {
		log.Errorf("[writeWords][%s] failed to encode response: %v", shorten(GetRequestID(r.Context())), err)
	}
}

func decodeWords(w http.ResponseWriter, r *http.Request, handler string) ([]string, bool) {
	defer r.Body.Close()

	var words []string
	if err := json.NewDecoder(r.Body).Decode(&words); err != nil || words == nil {
		http.Error(w, "Request body must be a JSON array of strings", http.StatusBadRequest)
		log.Debugf("[%s][%s] failed to decode word list: %v", handler, shorten(GetRequestID(r.Context())), err)
		return nil, false
	}
	return words, true
}

// shorten truncates s to 6 characters followed by "..." when it is longer.
func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
