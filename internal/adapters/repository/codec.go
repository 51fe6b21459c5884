package repository

import (
	"encoding/json"
	"fmt"

	"github.com/okian/liftguard/internal/domain/model"
)

// encodedRecord is the column form shared by the SQL backends. Input and result
// are stored as JSON documents next to the denormalized dashboard columns.
type encodedRecord struct {
	input  []byte
	result []byte
}

func encodeRecord(in model.AssessmentInput, res model.AssessmentResult) (encodedRecord, error) {
	inJSON, err := json.Marshal(in)
	if err != nil {
		return encodedRecord{}, fmt.Errorf("encode input: %w", err)
	}
	resJSON, err := json.Marshal(res)
	if err != nil {
		return encodedRecord{}, fmt.Errorf("encode result: %w", err)
	}
	return encodedRecord{input: inJSON, result: resJSON}, nil
}

func decodeRecord(rec *model.AssessmentRecord, inJSON, resJSON []byte) error {
	if err := json.Unmarshal(inJSON, &rec.Input); err != nil {
		return fmt.Errorf("decode input for record %d: %w", rec.ID, err)
	}
	if err := json.Unmarshal(resJSON, &rec.Result); err != nil {
		return fmt.Errorf("decode result for record %d: %w", rec.ID, err)
	}
	return nil
}
