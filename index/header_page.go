package index

import (
	"fmt"

	"github.com/osprey-db/osprey/buffer"
	"github.com/osprey-db/osprey/util"
)

// headerPage lives at page id 0 and maps each index name to its root
// page id. All record operations run under the header page's exclusive
// latch; getRootId takes the shared latch.
type headerPage struct {
	Records map[string]int64
}

func getRootId(bpm *buffer.BufferpoolManager, indexName string) (int64, bool, error) {
	guard, err := bpm.ReadPage(HEADER_PAGE_ID)
	if err != nil {
		return INVALID_PAGE_ID, false, fmt.Errorf("error reading header page: %v", err)
	}
	defer guard.Drop()

	header, err := util.ToStruct[headerPage](guard.GetData())
	if err != nil {
		return INVALID_PAGE_ID, false, err
	}

	rootId, ok := header.Records[indexName]
	return rootId, ok, nil
}

// upsertRecord inserts or updates the root record for indexName.
func upsertRecord(bpm *buffer.BufferpoolManager, indexName string, rootId int64) error {
	return mutateHeader(bpm, func(header *headerPage) {
		if header.Records == nil {
			header.Records = map[string]int64{}
		}
		header.Records[indexName] = rootId
	})
}

// deleteRecord removes the root record for indexName, when the last
// key leaves the tree.
func deleteRecord(bpm *buffer.BufferpoolManager, indexName string) error {
	return mutateHeader(bpm, func(header *headerPage) {
		delete(header.Records, indexName)
	})
}

func mutateHeader(bpm *buffer.BufferpoolManager, mutate func(*headerPage)) error {
	guard, err := bpm.WritePage(HEADER_PAGE_ID)
	if err != nil {
		return fmt.Errorf("error writing header page: %v", err)
	}
	defer guard.Drop()

	header, err := util.ToStruct[headerPage](guard.GetData())
	if err != nil {
		return err
	}

	mutate(&header)

	data, err := util.ToByteSlice(header)
	if err != nil {
		return err
	}
	copy(*guard.GetDataMut(), data)

	return nil
}
