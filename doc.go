// Package capitol keeps a local, deduplicated history of securities
// transactions disclosed by members of Congress.
//
// The core functionalities include:
//   - Trade model: the canonical Trade record and its deduplication Key.
//   - Merge: folding newly observed trades into an existing snapshot, the
//     most recently observed version of a trade replacing older ones.
//   - Sync: the Syncer computes a date window from the snapshot's watermark,
//     asks a Source for the trades in that window, merges and saves them to
//     a Store.
//   - Summary: dashboard figures (volumes by direction, sector flows, most
//     active tickers, freshness) over a snapshot.
//
// Fetching the remote listing lives in package capitoltrades, persistence in
// package store, and sector metadata in package enrich. This package serves
// as the foundational logic for the `capshill` command-line tool.
package capitol
