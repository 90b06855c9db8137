package service

import (
	"errors"

	"docvault/internal/apperr"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

var (
	ErrDocumentAlreadyExists = apperr.New(apperr.KindConflict, "DOCUMENT_ALREADY_EXISTS", "a document with this name already exists")
	// ErrDocumentNotFoundOrAccessDenied deliberately does not say which of the two happened.
	ErrDocumentNotFoundOrAccessDenied = apperr.New(apperr.KindAuthorization, "DOCUMENT_DOES_NOT_EXIST_OR_ACCESS_DENIED", "document does not exist or access denied")
	ErrDocumentDoesNotExist           = apperr.New(apperr.KindNotFound, "DOCUMENT_DOES_NOT_EXIST", "document does not exist")
	ErrNoDocumentsFound               = apperr.New(apperr.KindNotFound, "NO_DOCUMENTS_FOUND", "no documents found")
	ErrUnsupportedFormat              = apperr.New(apperr.KindUnsupportedFormat, "UNSUPPORTED_FORMAT", "unsupported document format")
	ErrInvalidDocumentName            = apperr.New(apperr.KindValidation, "INVALID_DOCUMENT_NAME", "document name has no usable characters")
	ErrEmptyFile                      = apperr.New(apperr.KindValidation, "EMPTY_FILE", "a file is required")
	ErrNothingToUpdate                = apperr.New(apperr.KindValidation, "NOTHING_TO_UPDATE", "nothing to update")

	ErrOnlyCreatorMayManage    = apperr.New(apperr.KindAuthorization, "ONLY_CREATOR_MAY_MANAGE_PERMISSIONS", "only the document creator may manage its permissions")
	ErrCreatorRoleSelfOnly     = apperr.New(apperr.KindAuthorization, "CREATOR_ROLE_SELF_ONLY", "the CREATOR role can only be held by the document creator")
	ErrCreatorNotRevocable     = apperr.New(apperr.KindValidation, "CREATOR_PERMISSION_NOT_REVOCABLE", "the CREATOR permission can only be removed by deleting the document")
	ErrPermissionAlreadyExists = apperr.New(apperr.KindConflict, "PERMISSION_ALREADY_EXISTS", "the user already holds a permission on this document")
	ErrPermissionDoesNotExist  = apperr.New(apperr.KindNotFound, "PERMISSION_DOES_NOT_EXIST", "permission does not exist")

	ErrUserAlreadyExists = apperr.New(apperr.KindConflict, "USER_ALREADY_EXISTS", "a user with this email already exists")
	ErrUserDoesNotExist  = apperr.New(apperr.KindNotFound, "USER_DOES_NOT_EXIST", "user does not exist")
	ErrUserAccessDenied  = apperr.New(apperr.KindAuthorization, "USER_DOES_NOT_EXIST_OR_ACCESS_DENIED", "user does not exist or access denied")
)

// storageError translates a file storage failure into the workflow taxonomy.
func storageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrUnsupportedFormat):
		return ErrUnsupportedFormat
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrDocumentAlreadyExists
	case errors.Is(err, storage.ErrInvalidName):
		return ErrInvalidDocumentName
	default:
		return apperr.Storage(err)
	}
}

// documentLookupError conflates a missing document with denied access.
func documentLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrDocumentNotFoundOrAccessDenied
	}
	return apperr.Persistence(err)
}

// documentWriteError maps a document insert/update failure.
func documentWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		return ErrDocumentAlreadyExists
	case errors.Is(err, repository.ErrNotFound):
		return ErrDocumentNotFoundOrAccessDenied
	case errors.Is(err, repository.ErrInvalidReference):
		return ErrUserDoesNotExist
	default:
		return apperr.Persistence(err)
	}
}
