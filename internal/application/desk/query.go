package desk

import "library-desk/internal/domain/identifier"

// QueryState 読み取りクエリ1本分の状態
//
// Loadingはまだ一度もデータを取得できていない間だけtrueになる。
// データ取得済みの再取得中はRefetchingがtrueになり、表示中のデータはそのまま残る。
type QueryState[T any] struct {
	Loading    bool
	Refetching bool
	Err        error
	Data       T
	Variables  identifier.ID
	Fetches    int
	Fetched    bool

	inflight int
}

func (q *QueryState[T]) begin(vars identifier.ID) {
	q.Variables = vars
	q.Fetches++
	q.inflight++
	if q.Fetched {
		q.Refetching = true
	} else {
		q.Loading = true
	}
}

func (q *QueryState[T]) finish(data T, err error) {
	if q.inflight > 0 {
		q.inflight--
	}
	if q.inflight == 0 {
		q.Loading = false
		q.Refetching = false
	}
	if err != nil {
		q.Err = err
		return
	}
	q.Err = nil
	q.Data = data
	q.Fetched = true
}

// reset 変数が変わったときに、前の会員のデータを捨てる
func (q *QueryState[T]) reset() {
	*q = QueryState[T]{Fetches: q.Fetches}
}
