package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"registration-analytics/internal/model"
)

// RejectPolicy decides what Derive does with records that fail decoding
type RejectPolicy string

const (
	// RejectSkip drops bad records and reports them in Result.Rejected
	RejectSkip RejectPolicy = "skip"
	// RejectAbort fails the whole batch if any record is bad
	RejectAbort RejectPolicy = "abort"
)

// ParseRejectPolicy parses a policy name; the empty string selects RejectSkip
func ParseRejectPolicy(s string) (RejectPolicy, error) {
	switch RejectPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RejectSkip:
		return RejectSkip, nil
	case RejectAbort:
		return RejectAbort, nil
	}
	return "", fmt.Errorf("unknown reject policy %q", s)
}

// Options configures Derive
type Options struct {
	ReferenceCurrency string
	RejectPolicy      RejectPolicy
}

// Result is the derived record set for one batch
type Result struct {
	Records  []model.DerivedRecord
	Rejected []*RecordError
	Total    int
}

// Err combines every rejection into one error, or nil
func (r Result) Err() error {
	var err error
	for _, rej := range r.Rejected {
		err = multierr.Append(err, rej)
	}
	return err
}

// Derive decodes raw documents and computes date, time and the currency
// buckets for each. Every failing record is collected; under RejectAbort the
// combined error is returned, under RejectSkip the failures are reported in
// Result.Rejected and the remaining records are kept in input order.
func Derive(raw []model.RawRecord, opts Options) (Result, error) {
	if opts.ReferenceCurrency == "" {
		return Result{}, ErrEmptyReferenceCurrency
	}
	if opts.RejectPolicy == "" {
		opts.RejectPolicy = RejectSkip
	}

	res := Result{
		Records: make([]model.DerivedRecord, 0, len(raw)),
		Total:   len(raw),
	}

	for i, doc := range raw {
		rec, err := deriveOne(doc, opts.ReferenceCurrency)
		if err != nil {
			res.Rejected = append(res.Rejected, toRecordError(i, doc, err))
			continue
		}
		res.Records = append(res.Records, rec)
	}

	if opts.RejectPolicy == RejectAbort && len(res.Rejected) > 0 {
		return res, fmt.Errorf("%d of %d records rejected: %w", len(res.Rejected), res.Total, res.Err())
	}
	return res, nil
}

func deriveOne(doc model.RawRecord, referenceSymbol string) (model.DerivedRecord, error) {
	reg, err := Decode(doc)
	if err != nil {
		return model.DerivedRecord{}, err
	}

	rec := model.DerivedRecord{Registration: reg}
	if rec, err = splitTimestamp(rec); err != nil {
		return rec, fieldError(model.FieldCreatedAt, err)
	}
	if rec, err = normalizeCurrency(rec, referenceSymbol); err != nil {
		return rec, fieldError(model.FieldPaymentCurrency, err)
	}
	return rec, nil
}

func toRecordError(index int, doc model.RawRecord, err error) *RecordError {
	id, _ := optionalText(doc, model.FieldID, "_id")
	var fe *FieldError
	if errors.As(err, &fe) {
		return recordError(index, id, fe.Field, fe.Err)
	}
	return recordError(index, id, "", err)
}
