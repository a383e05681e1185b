// Package checkid generates correlation identifiers for validation results
//
// A check id is a cheap, time-sortable numeric identifier built without a
// database sequence. Collisions are acceptable at low probability; the id is
// a bookkeeping key, not a security token
package checkid

import "time"

// Version tags ids so the layout can evolve without ambiguity
const Version = 1

// digit widths of the composed id, high to low:
// 9 timestamp digits, 4 client digits, 1 checksum digit, 1 version digit
const (
	clientMod = 10_000
	tsMod     = 1_000_000_000
)

// Generate returns a check id for clientID derived from the current time
func Generate(clientID int64) int64 {
	return At(time.Now(), clientID)
}

// At returns the check id for clientID at time t
// Exposed so tests can pin the timestamp
func At(t time.Time, clientID int64) int64 {
	ms := t.UnixMilli()
	if clientID < 0 {
		clientID = -clientID
	}

	ts := ms % tsMod      // low nine digits keep ids ordered within a ~11.5 day window
	lead := ms / tsMod    // leading digits feed the checksum
	client := clientID % clientMod

	check := (digitSum(lead) * clientID) % 10
	if check < 0 {
		check = -check
	}

	return ts*1_000_000 + client*100 + check*10 + Version
}

// ClientOf extracts the embedded client digits from a check id
func ClientOf(id int64) int64 { return (id / 100) % clientMod }

// VersionOf extracts the version digit from a check id
func VersionOf(id int64) int64 { return id % 10 }

func digitSum(n int64) int64 {
	if n < 0 {
		n = -n
	}
	var s int64
	for n > 0 {
		s += n % 10
		n /= 10
	}
	return s
}
