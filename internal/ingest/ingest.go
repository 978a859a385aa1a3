// Package ingest turns a multipart submission into a typed batch record plus
// its post entries. The request body is consumed part by part; file parts are
// never buffered in memory.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/jobilist/batch-checkout/internal/batch"
)

// logoField is the single file field that gets uploaded; every other file
// part is drained and discarded so it cannot exhaust the stream or memory.
const logoField = "logo"

// maxValueBytes caps each scalar form value.
const maxValueBytes = 1 << 20

// ErrUpload marks a failed logo upload. It is fatal to the submission: no
// partial batch is accepted without a logo URL.
var ErrUpload = errors.New("logo upload failed")

// ErrFieldTooLarge marks a scalar form value over maxValueBytes. Truncating
// instead would let a clipped value flow through validation into the order.
var ErrFieldTooLarge = errors.New("form field too large")

// Uploader stores a byte stream with the image provider and returns its
// public URL.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
}

// Result is a parsed submission: the batch record and exactly
// Batch.PostCount entries, in submission order.
type Result struct {
	Batch batch.Submission
	Posts []batch.PostEntry
}

// Parse streams the multipart request and assembles the submission. The
// declared post count is parsed permissively: a missing or non-numeric value
// yields zero entries, never a parse error; validation decides whether that
// is acceptable. An upload failure aborts ingestion with ErrUpload.
func Parse(ctx context.Context, r *http.Request, up Uploader) (*Result, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("open multipart reader: %w", err)
	}

	values := map[string]string{}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart part: %w", err)
		}

		name := part.FormName()
		if part.FileName() != "" {
			if name == logoField {
				url, uerr := up.Upload(ctx, part)
				part.Close()
				if uerr != nil {
					return nil, fmt.Errorf("%w: %v", ErrUpload, uerr)
				}
				values[name] = url
				continue
			}
			// Unexpected file field: drain so the stream keeps advancing.
			_, _ = io.Copy(io.Discard, part)
			part.Close()
			continue
		}

		// Read one byte past the cap so an over-limit value is detected
		// rather than silently clipped.
		val, err := io.ReadAll(io.LimitReader(part, maxValueBytes+1))
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("read field %q: %w", name, err)
		}
		if len(val) > maxValueBytes {
			return nil, fmt.Errorf("%w: %q", ErrFieldTooLarge, name)
		}
		values[name] = string(val)
	}

	postCount := intOrZero(values["postCount"])

	res := &Result{
		Batch: batch.Submission{
			Email:        values["email"],
			Website:      values["website"],
			Name:         values["name"],
			Description:  values["description"],
			LogoURL:      values[logoField],
			Color:        values["color"],
			ExpiresAfter: intOrZero(values["expiresAfter"]),
			Currency:     values["currency"],
			PostCount:    postCount,
		},
		Posts: make([]batch.PostEntry, 0, max(postCount, 0)),
	}

	for i := 0; i < postCount; i++ {
		key := func(field string) string { return fmt.Sprintf("posts[%d].%s", i, field) }
		res.Posts = append(res.Posts, batch.PostEntry{
			Index:       i,
			Title:       values[key("title")],
			Type:        values[key("type")],
			Location:    values[key("location")],
			SalaryStart: intOrZero(values[key("salaryStart")]),
			SalaryEnd:   intOrZero(values[key("salaryEnd")]),
			ApplyLink:   values[key("applyLink")],
			ApplyEmail:  values[key("applyEmail")],
			Description: values[key("description")],
			Tags:        batch.ParseTags(values[key("tags")]),
		})
	}

	return res, nil
}

func intOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
