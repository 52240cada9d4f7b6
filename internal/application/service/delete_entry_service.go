package service

import (
	"fmt"

	"logstore/internal/domain"
)

type DeleteEntryService struct {
	repository domain.DbEntryRepository
}

func NewDeleteEntryService(repository domain.DbEntryRepository) *DeleteEntryService {
	return &DeleteEntryService{
		repository: repository,
	}
}

type DeleteEntryCommand struct {
	Key string
}

type DeleteEntryResult struct {
	Entry domain.DbEntry
	Err   error
}

func (s *DeleteEntryService) Execute(command DeleteEntryCommand) DeleteEntryResult {
	entry, err := s.repository.Delete(command.Key)
	if err != nil {
		return DeleteEntryResult{
			Err: fmt.Errorf("delete entry with key %s: %w", command.Key, err),
		}
	}
	return DeleteEntryResult{
		Entry: entry,
	}
}
