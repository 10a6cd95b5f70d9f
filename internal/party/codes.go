package party

import "crypto/rand"

// codeAttempts bounds the collision-retry loop in CreateRoom.
const codeAttempts = 10

// newRoomCode draws a 6-character code from an alphabet without the
// easily-confused characters (0/O, 1/I).
func newRoomCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}
