package format

import "strconv"

// Kind identifies what a tag's payload means. The codes below cover the
// file-structure tags, the common measurement tags and the MNE extension
// range used by this module; files may contain others, which pass through
// unharmed.
type Kind int32

// File structure tags.
const (
	KindFileID        Kind = 100
	KindDirPointer    Kind = 101
	KindDir           Kind = 102
	KindBlockID       Kind = 103
	KindBlockStart    Kind = 104
	KindBlockEnd      Kind = 105
	KindFreeList      Kind = 106
	KindFreeBlock     Kind = 107
	KindNop           Kind = 108
	KindParentFileID  Kind = 109
	KindParentBlockID Kind = 110
)

// Data acquisition tags.
const (
	KindDACQPars Kind = 150
	KindDACQStim Kind = 151
)

// Measurement tags.
const (
	KindNChan       Kind = 200
	KindSFreq       Kind = 201
	KindDataPack    Kind = 202
	KindChInfo      Kind = 203
	KindMeasDate    Kind = 204
	KindSubject     Kind = 205
	KindComment     Kind = 206
	KindNave        Kind = 207
	KindFirstSample Kind = 208
	KindLastSample  Kind = 209
	KindAspectKind  Kind = 210
	KindDigPoint    Kind = 213
	KindLowpass     Kind = 219
	KindBadChs      Kind = 220
	KindCoordTrans  Kind = 222
	KindHighpass    Kind = 223
	KindName        Kind = 233
	KindLineFreq    Kind = 235
	KindDataBuffer  Kind = 300
	KindDataSkip    Kind = 301
	KindEpoch       Kind = 302
)

// Signal-space projection tags.
const (
	KindProjItemKind       Kind = 3411
	KindProjItemTime       Kind = 3412
	KindProjItemIgnoreChs  Kind = 3413
	KindProjItemNVec       Kind = 3414
	KindProjItemVectors    Kind = 3415
	KindProjItemDefinition Kind = 3416
	KindProjItemChNameList Kind = 3417
)

// MNE extension tags.
const (
	KindMNEProjItemActive    Kind = 3492
	KindMNERowNames          Kind = 3502
	KindMNEColNames          Kind = 3503
	KindMNENRow              Kind = 3504
	KindMNENCol              Kind = 3505
	KindMNECoordFrame        Kind = 3506
	KindMNEChNameList        Kind = 3507
	KindMNECTFCompKind       Kind = 3580
	KindMNECTFCompData       Kind = 3581
	KindMNECTFCompCalibrated Kind = 3582
)

func (k Kind) String() string {
	switch k {
	case KindFileID:
		return "file_id"
	case KindDirPointer:
		return "dir_pointer"
	case KindDir:
		return "dir"
	case KindBlockID:
		return "block_id"
	case KindBlockStart:
		return "block_start"
	case KindBlockEnd:
		return "block_end"
	case KindFreeList:
		return "free_list"
	case KindFreeBlock:
		return "free_block"
	case KindNop:
		return "nop"
	case KindParentFileID:
		return "parent_file_id"
	case KindParentBlockID:
		return "parent_block_id"
	case KindDACQPars:
		return "dacq_pars"
	case KindDACQStim:
		return "dacq_stim"
	case KindNChan:
		return "nchan"
	case KindSFreq:
		return "sfreq"
	case KindDataPack:
		return "data_pack"
	case KindChInfo:
		return "ch_info"
	case KindMeasDate:
		return "meas_date"
	case KindSubject:
		return "subject"
	case KindComment:
		return "comment"
	case KindNave:
		return "nave"
	case KindFirstSample:
		return "first_sample"
	case KindLastSample:
		return "last_sample"
	case KindAspectKind:
		return "aspect_kind"
	case KindDigPoint:
		return "dig_point"
	case KindLowpass:
		return "lowpass"
	case KindBadChs:
		return "bad_chs"
	case KindCoordTrans:
		return "coord_trans"
	case KindHighpass:
		return "highpass"
	case KindName:
		return "name"
	case KindLineFreq:
		return "line_freq"
	case KindDataBuffer:
		return "data_buffer"
	case KindDataSkip:
		return "data_skip"
	case KindEpoch:
		return "epoch"
	case KindProjItemKind:
		return "proj_item_kind"
	case KindProjItemTime:
		return "proj_item_time"
	case KindProjItemIgnoreChs:
		return "proj_item_ign_chs"
	case KindProjItemNVec:
		return "proj_item_nvec"
	case KindProjItemVectors:
		return "proj_item_vectors"
	case KindProjItemDefinition:
		return "proj_item_definition"
	case KindProjItemChNameList:
		return "proj_item_ch_name_list"
	case KindMNEProjItemActive:
		return "mne_proj_item_active"
	case KindMNERowNames:
		return "mne_row_names"
	case KindMNEColNames:
		return "mne_col_names"
	case KindMNENRow:
		return "mne_nrow"
	case KindMNENCol:
		return "mne_ncol"
	case KindMNECoordFrame:
		return "mne_coord_frame"
	case KindMNEChNameList:
		return "mne_ch_name_list"
	case KindMNECTFCompKind:
		return "mne_ctf_comp_kind"
	case KindMNECTFCompData:
		return "mne_ctf_comp_data"
	case KindMNECTFCompCalibrated:
		return "mne_ctf_comp_calibrated"
	default:
		return "kind_" + strconv.Itoa(int(k))
	}
}
