package judge

import "errors"

var (
	// ErrParse berarti model menjawab tapi jawabannya tidak bisa diparse.
	ErrParse = errors.New("judge: unparseable model answer")

	// ErrQuotaExceeded berarti provider menolak karena kuota/rate limit habis.
	ErrQuotaExceeded = errors.New("judge: provider quota exceeded")
)
