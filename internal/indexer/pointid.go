package indexer

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
)

// PointID derives the stored point id for a frame. It is a pure function of
// (video id, frame number): the first 8 hex characters of
// md5("<video_id>_<frame_number>") parsed as an integer. The scheme is fixed;
// changing it would break idempotent re-indexing of existing collections.
func PointID(videoID string, frameNumber int) uint64 {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d", videoID, frameNumber)))
	digest := hex.EncodeToString(sum[:])
	id, err := strconv.ParseUint(digest[:8], 16, 64)
	if err != nil {
		// Unreachable: an 8-char hex string always parses.
		panic(err)
	}
	return id
}
