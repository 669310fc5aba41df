package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"heritage-quiz-service/internal/domain"
)

// candidateColumns is what question building needs; long-form text, the
// gallery and location stay in the table.
const candidateColumns = `hid, ward_code, name, img_url, img_credit, img_caption, summary`

// HeritageRepository reads and seeds heritage records.
type HeritageRepository struct {
	pool *pgxpool.Pool
}

func NewHeritageRepository(pool *pgxpool.Pool) *HeritageRepository {
	return &HeritageRepository{pool: pool}
}

// Sample draws up to size eligible records in random order, projected to
// the fields question building reads.
func (r *HeritageRepository) Sample(ctx context.Context, filter domain.CandidateFilter, size int) ([]domain.HeritageRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+candidateColumns+`
		FROM heritages
		WHERE ($1::bool = false OR img_url <> '')
		  AND ($2::bool = false OR summary <> '')
		ORDER BY random()
		LIMIT $3`,
		filter.RequireImage, filter.RequireSummary, size)
	if err != nil {
		return nil, fmt.Errorf("sample heritages (%s): %w", filter, err)
	}
	defer rows.Close()

	var records []domain.HeritageRecord
	for rows.Next() {
		rec, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *HeritageRepository) WardCodes(ctx context.Context, hids []string) (map[string]string, error) {
	out := make(map[string]string, len(hids))
	if len(hids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT hid, ward_code FROM heritages WHERE hid = ANY($1)`, hids)
	if err != nil {
		return nil, fmt.Errorf("load ward codes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var hid, ward string
		if err := rows.Scan(&hid, &ward); err != nil {
			return nil, fmt.Errorf("scan ward code: %w", err)
		}
		out[hid] = ward
	}
	return out, rows.Err()
}

// Upsert inserts or replaces records by hid in a single batch.
func (r *HeritageRepository) Upsert(ctx context.Context, records []domain.HeritageRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		gallery, err := json.Marshal(nonNilImages(rec.Gallery))
		if err != nil {
			return 0, fmt.Errorf("encode gallery of %s: %w", rec.HID, err)
		}
		img := domain.Image{}
		if rec.Image != nil {
			img = *rec.Image
		}
		var lng, lat *float64
		if rec.Location != nil {
			lng, lat = &rec.Location.Lng, &rec.Location.Lat
		}
		tags := rec.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(`
			INSERT INTO heritages (hid, ward_code, name, category, category_code, level, level_code,
				img_url, img_credit, img_caption, gallery, summary, history, narrative,
				wiki_link, map_link, lng, lat, tags)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13, $14, $15, $16, $17, $18, $19)
			ON CONFLICT (hid) DO UPDATE SET
				ward_code = EXCLUDED.ward_code,
				name = EXCLUDED.name,
				category = EXCLUDED.category,
				category_code = EXCLUDED.category_code,
				level = EXCLUDED.level,
				level_code = EXCLUDED.level_code,
				img_url = EXCLUDED.img_url,
				img_credit = EXCLUDED.img_credit,
				img_caption = EXCLUDED.img_caption,
				gallery = EXCLUDED.gallery,
				summary = EXCLUDED.summary,
				history = EXCLUDED.history,
				narrative = EXCLUDED.narrative,
				wiki_link = EXCLUDED.wiki_link,
				map_link = EXCLUDED.map_link,
				lng = EXCLUDED.lng,
				lat = EXCLUDED.lat,
				tags = EXCLUDED.tags,
				updated_at = now()`,
			rec.HID, rec.WardCode, rec.Name, string(rec.Category), rec.Category.Code(),
			string(rec.Level), rec.Level.Code(), img.URL, img.Credit, img.Caption, string(gallery),
			rec.Summary, rec.History, rec.Narrative, rec.WikiLink, rec.MapLink, lng, lat, tags)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for _, rec := range records {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("upsert heritage %s: %w", rec.HID, err)
		}
	}
	return len(records), nil
}

func scanCandidate(row pgx.Row) (domain.HeritageRecord, error) {
	var (
		rec                        domain.HeritageRecord
		imgURL, imgCredit, caption string
	)
	if err := row.Scan(&rec.HID, &rec.WardCode, &rec.Name, &imgURL, &imgCredit, &caption, &rec.Summary); err != nil {
		return domain.HeritageRecord{}, fmt.Errorf("scan heritage candidate: %w", err)
	}
	if imgURL != "" {
		rec.Image = &domain.Image{URL: imgURL, Credit: imgCredit, Caption: caption}
	}
	return rec, nil
}

func nonNilImages(images []domain.Image) []domain.Image {
	if images == nil {
		return []domain.Image{}
	}
	return images
}
