package encoder

// Putter receives the records of a chunk. *leveldb.Batch satisfies it.
type Putter interface {
	Put(key, value []byte)
}

type Record struct {
	Key   []byte
	Value []byte
}

// Records collects records in the order they were put.
type Records []Record

func (r *Records) Put(key, value []byte) {
	*r = append(*r, Record{Key: key, Value: value})
}

// Find returns the value stored under key, or nil.
func (r Records) Find(key []byte) []byte {
	for _, record := range r {
		if string(record.Key) == string(key) {
			return record.Value
		}
	}
	return nil
}
