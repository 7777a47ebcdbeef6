package util

import (
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

var (
	unitCache   *cache.Cache
	unitCacheMu sync.RWMutex
)

const defaultUnitCacheTTL = 10 * time.Minute

// InitUnitCache initializes the unit number -> unit id cache.
// If ttl <= 0, a default of 10 minutes is used.
func InitUnitCache(ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultUnitCacheTTL
	}
	unitCacheMu.Lock()
	defer unitCacheMu.Unlock()
	unitCache = cache.New(ttl, 2*ttl)
}

func getUnitCache() *cache.Cache {
	unitCacheMu.RLock()
	defer unitCacheMu.RUnlock()
	return unitCache
}

// UnitCacheGet returns the unit id cached for unitNumber.
func UnitCacheGet(unitNumber string) (uint, bool) {
	c := getUnitCache()
	if c == nil {
		return 0, false
	}
	v, ok := c.Get(unitNumber)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// UnitCacheSet caches the unit id for unitNumber.
func UnitCacheSet(unitNumber string, unitID uint) {
	if c := getUnitCache(); c != nil {
		c.SetDefault(unitNumber, unitID)
	}
}

// UnitCacheDelete evicts unitNumber, used when a unit is moved or deleted.
func UnitCacheDelete(unitNumber string) {
	if c := getUnitCache(); c != nil {
		c.Delete(unitNumber)
	}
}

// FindUnitIDByNumber returns the id of the live unit holding unitNumber, using
// the cache and falling back to the DB. Found ids are cached.
func FindUnitIDByNumber(db *gorm.DB, unitNumber string) (uint, bool) {
	if unitNumber == "" {
		return 0, false
	}
	if id, ok := UnitCacheGet(unitNumber); ok {
		return id, true
	}
	if db == nil {
		return 0, false
	}
	var u struct{ ID uint }
	err := db.Table("units").Select("id").
		Where("unit_number = ? AND deleted_at IS NULL", unitNumber).
		Take(&u).Error
	if err != nil || u.ID == 0 {
		return 0, false
	}
	UnitCacheSet(unitNumber, u.ID)
	return u.ID, true
}
