package archive

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"courtparser-engine/internal/domain"
	"courtparser-engine/internal/scrape/util"
	"courtparser-engine/internal/store"
)

type Archiver struct {
	storage Storage
	db      *sql.DB
	http    *resty.Client
	limiter *util.HostLimiter
	now     func() time.Time
}

func NewArchiver(storage Storage, db *sql.DB, userAgent string, timeout time.Duration) *Archiver {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	if userAgent != "" {
		client.SetHeader("user-agent", userAgent)
	}
	return &Archiver{
		storage: storage,
		db:      db,
		http:    client,
		limiter: util.NewIntervalLimiter(time.Second),
		now:     time.Now,
	}
}

// Storage is the backend decisions are written to.
func (a *Archiver) Storage() Storage { return a.storage }

// Wanted reports whether a record points at a downloadable decision document.
func Wanted(rec domain.CaseRecord) bool {
	return rec.HasDecision && rec.DecisionLink != "" && !rec.IsEmbeddedDecision()
}

// ArchiveAll stores every new decision document of the batch. Failures are
// logged per record and never abort the batch.
func (a *Archiver) ArchiveAll(ctx context.Context, recs []domain.CaseRecord) int {
	n := 0
	for _, rec := range recs {
		if ctx.Err() != nil {
			break
		}
		if !Wanted(rec) {
			continue
		}
		done, err := store.HasDecisionFile(ctx, a.db, rec.CaseNumber, util.StripFragment(rec.DecisionLink))
		if err != nil {
			log.Printf("[archive] lookup case=%q err=%v", rec.CaseNumber, err)
			continue
		}
		if done {
			continue
		}
		if _, err := a.Archive(ctx, rec); err != nil {
			log.Printf("[archive] case=%q url=%q err=%v", rec.CaseNumber, rec.DecisionLink, err)
			continue
		}
		n++
	}
	return n
}

// Archive downloads one decision document and records where it went.
func (a *Archiver) Archive(ctx context.Context, rec domain.CaseRecord) (store.DecisionFile, error) {
	src := util.StripFragment(rec.DecisionLink)
	if err := a.limiter.WaitURL(ctx, src); err != nil {
		return store.DecisionFile{}, err
	}
	res, err := a.http.R().SetContext(ctx).Get(src)
	if err != nil {
		return store.DecisionFile{}, fmt.Errorf("download: %w", err)
	}
	if res.IsError() {
		return store.DecisionFile{}, fmt.Errorf("download status %d", res.StatusCode())
	}

	name := fileName(src)
	ct := res.Header().Get("Content-Type")
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		ct = ContentTypeFor(name)
	}

	id := uuid.New()
	body := res.Body()
	key, err := a.storage.Upload(ctx, id, name, ct, bytes.NewReader(body))
	if err != nil {
		return store.DecisionFile{}, err
	}

	f := store.DecisionFile{
		ID:          id.String(),
		CaseNumber:  rec.CaseNumber,
		SourceURL:   src,
		Storage:     a.storage.Kind(),
		ObjectKey:   key,
		ContentType: ct,
		Size:        int64(len(body)),
		FetchedAt:   a.now(),
	}
	if err := store.InsertDecisionFile(ctx, a.db, f); err != nil {
		_ = a.storage.Delete(ctx, key)
		return store.DecisionFile{}, err
	}
	log.Printf("[archive] stored case=%q key=%s bytes=%d", rec.CaseNumber, key, f.Size)
	return f, nil
}

func fileName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "decision"
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "decision"
	}
	return base
}
