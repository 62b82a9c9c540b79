package cache

import (
	"fmt"
	"time"
)

const (
	IndexPageKeyPrefix = "posts:index:page:%d"
	GroupKeyPrefix     = "group:%s"
	RevokedTokenPrefix = "blacklist:%s"
)

const (
	// DefaultIndexTTL matches the 20 second cache on the global list.
	DefaultIndexTTL = 20 * time.Second
	GroupTTL        = 10 * time.Minute
)

func IndexPageKey(page int) string {
	return fmt.Sprintf(IndexPageKeyPrefix, page)
}

func GroupKey(slug string) string {
	return fmt.Sprintf(GroupKeyPrefix, slug)
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenPrefix, jti)
}
