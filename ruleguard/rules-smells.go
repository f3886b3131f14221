package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// 1) Two consecutive guard ifs with the same return => mergeable with ||
	//    e.g.
	//      if a { return err }
	//      if b { return err }
	//    => if a || b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	// Same pattern with continue (inside loops)
	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// 2) Nested for-loops: not always wrong, but a useful refactor smell
	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

func concurrency(m dsl.Matcher) {
	// Locks in this codebase are always released via defer; a bare Unlock
	// later in the function is a leak waiting for an early return.
	m.Match(`$mu.Lock(); $*_; $mu.Unlock()`).
		Report(`prefer defer $mu.Unlock() immediately after locking`)

	// time.Sleep in request-path code hides a missing context deadline.
	m.Match(`time.Sleep($_)`).
		Report(`sleeping in production code; prefer context deadlines or a ticker`)
}

func httpbody(m dsl.Matcher) {
	// Unbounded reads of upstream responses can balloon memory; every
	// provider/page body read goes through io.LimitReader.
	m.Match(`io.ReadAll($resp.Body)`).
		Where(m["resp"].Type.Is(`*net/http.Response`)).
		Report(`unbounded response read; wrap the body in io.LimitReader`)
}
