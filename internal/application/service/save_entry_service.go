package service

import (
	"logstore/internal/domain"
)

type SaveEntryService struct {
	repository domain.DbEntryRepository
}

func NewSaveEntryService(repository domain.DbEntryRepository) *SaveEntryService {
	return &SaveEntryService{
		repository: repository,
	}
}

type SaveEntryCommand struct {
	Key   string
	Value string
}

type SaveEntryResult struct {
	Entry domain.DbEntry
	Err   error
}

func (s *SaveEntryService) Execute(command SaveEntryCommand) SaveEntryResult {
	entry, err := s.repository.Save(domain.NewDbEntry(command.Key, command.Value, false))
	if err != nil {
		return SaveEntryResult{Err: err}
	}
	return SaveEntryResult{Entry: entry}
}
