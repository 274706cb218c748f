package migration

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteSQL renders an idempotent insert script for auth.users followed by a
// verification query. Users without an email are left out.
func WriteSQL(w io.Writer, users []ExportedUser, generatedAt time.Time) (int, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Firebase to Supabase User Migration\n-- Generated on %s\n-- Run this in Supabase SQL Editor\n",
		generatedAt.UTC().Format(time.RFC3339))

	written := 0
	for _, u := range users {
		if u.Email == "" {
			continue
		}
		meta, err := json.Marshal(map[string]string{
			"display_name":      u.DisplayName,
			"firebase_local_id": u.LocalID,
		})
		if err != nil {
			return written, err
		}
		confirmed := "NULL"
		if u.EmailVerified {
			confirmed = "NOW()"
		}

		fmt.Fprintf(&b, `
-- User: %s
INSERT INTO auth.users (
  id,
  email,
  email_confirmed_at,
  created_at,
  updated_at,
  raw_user_meta_data,
  raw_app_meta_data
) VALUES (
  gen_random_uuid(),
  %s,
  %s,
  NOW(),
  NOW(),
  %s,
  '{}'
) ON CONFLICT (email) DO NOTHING;
`, commentSafe(u.Email), quote(u.Email), confirmed, quote(string(meta)))
		written++
	}

	b.WriteString(`
-- Verify migration
SELECT
  id,
  email,
  email_confirmed_at,
  raw_user_meta_data->>'display_name' as display_name,
  raw_user_meta_data->>'firebase_local_id' as firebase_id,
  created_at
FROM auth.users
ORDER BY created_at DESC;
`)

	_, err := io.WriteString(w, b.String())
	return written, err
}

// quote renders a SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func commentSafe(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}
