// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package candidates persists the places a poll can offer.

Each record carries a popularity score. New records start at the maximum
(100). When a poll closes the winner is reset to the maximum and every other
offered candidate is multiplied by a decay factor, so ListAll and ListPage,
which order by popularity, surface recent winners first.

# Implementations

SQLStore runs on database/sql for sqlite, postgres, or mysql:

	store := candidates.NewSQLStore(conn, db.SQLite)

MySQL DSNs need parseTime=true so last_selected_at scans as a time.

MemoryStore is an in-process fake with the same ordering rules, plus Put for
seeding fixtures and FailOn for injecting write failures.

# Share Text

ParseShareText pulls a candidate out of a pasted delivery-app share message:

	name, url, err := candidates.ParseShareText(
		"Order from 'Pho Hoa' now! https://baemin.me/AbC12")
	// name = "Pho Hoa", url = "https://baemin.me/AbC12"
*/
package candidates
