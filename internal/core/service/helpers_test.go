package service

import "github.com/tradeworks/contractor-hub/internal/core/ports"

func portsRecord(id string, data []byte) ports.CacheRecord {
	return ports.CacheRecord{ID: id, Data: data}
}
