// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

// NNTP status codes from RFC 977, RFC 2980, RFC 3977 and RFC 4643.
const (
	StatusHelpFollows          = 100
	StatusCapabilitiesFollow   = 101
	StatusServerDate           = 111
	StatusPostingAllowed       = 200
	StatusPostingProhibited    = 201
	StatusClosingConnection    = 205
	StatusGroupSelected        = 211
	StatusListFollows          = 215
	StatusArticleFollows       = 220
	StatusHeadFollows          = 221
	StatusBodyFollows          = 222
	StatusArticleExists        = 223
	StatusOverviewFollows      = 224
	StatusHeadersFollow        = 225
	StatusNewArticlesFollow    = 230
	StatusNewGroupsFollow      = 231
	StatusArticlePosted        = 240
	StatusAuthAccepted         = 281
	StatusSendArticle          = 340
	StatusPasswordRequired     = 381
	StatusServiceUnavailable   = 400
	StatusNoSuchGroup          = 411
	StatusNoGroupSelected      = 412
	StatusInvalidArticleNumber = 420
	StatusNoNextArticle        = 421
	StatusNoPreviousArticle    = 422
	StatusNoArticleWithNumber  = 423
	StatusNoArticleWithID      = 430
	StatusPostingNotPermitted  = 440
	StatusPostingFailed        = 441
	StatusAuthRequired         = 480
	StatusAuthRejected         = 481
	StatusAuthOutOfSequence    = 482
	StatusEncryptionRequired   = 483
	StatusUnknownCommand       = 500
	StatusSyntaxError          = 501
	StatusPermissionDenied     = 502
	StatusFeatureNotSupported  = 503
)
