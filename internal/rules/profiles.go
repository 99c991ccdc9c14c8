package rules

import "github.com/voicevox-ue/vvstage/internal/platform"

const (
	macOnnxRuntime = "libonnxruntime.1.13.1.dylib"
	macCore        = "libvoicevox_core.dylib"
)

// cudaBundle is the full CUDA runtime set shipped next to the GPU build of
// onnxruntime.
var cudaBundle = []string{
	"onnxruntime_providers_cuda.dll",
	"onnxruntime_providers_shared.dll",
	"onnxruntime_providers_tensorrt.dll",
	"cublas64_11.dll",
	"cublasLt64_11.dll",
	"cudart64_110.dll",
	"cudnn_adv_infer64_8.dll",
	"cudnn_cnn_infer64_8.dll",
	"cudnn_ops_infer64_8.dll",
	"cudnn64_8.dll",
	"cufft64_10.dll",
	"curand64_10.dll",
}

var dicDefinition = `OPEN_JTALK_DIC_NAME="` + OpenJTalkDicName + `"`

// The configurations below are near-duplicates that differ in where files
// land. They are kept separate on purpose; each matches a shipped plugin.
var profiles = map[string]Profile{
	"engine-core": {
		Name:        "engine-core",
		Plugin:      "VoicevoxEngine",
		Module:      "VoicevoxCore",
		Description: "VoicevoxEngine plugin: everything staged next to the project executable",
		Definitions: []string{dicDefinition},
		Layouts: map[platform.Target]Layout{
			platform.Win64: {
				IncludeDir: dir(""),
				ImportLibs: []string{"voicevox_core.lib"},
				Libraries: []Library{
					{File: "voicevox_core.dll", Dest: ProjectBinaries, DelayLoad: true},
					{File: "onnxruntime.dll", Dest: ProjectBinaries, DelayLoad: true},
				},
				Optional: []Library{
					{File: "onnxruntime_providers_shared.dll", Dest: ProjectBinaries, DelayLoad: true},
					{File: "onnxruntime_providers_cuda.dll", Dest: ProjectBinaries, DelayLoad: true},
					{File: "onnxruntime_providers_tensorrt.dll", Dest: ProjectBinaries, DelayLoad: true},
				},
				Directories: []Directory{
					{Name: OpenJTalkDicName, Dest: ProjectBinaries},
					{Name: "model", Dest: ProjectBinaries},
				},
			},
			platform.Mac: {
				IncludeDir: dir(""),
				Libraries: []Library{
					{File: macCore, Dest: ProjectBinaries, DelayLoad: true, Link: true},
					{File: macOnnxRuntime, Dest: ProjectBinaries, DelayLoad: true, Link: true},
				},
				Directories: []Directory{
					{Name: OpenJTalkDicName, Dest: ProjectBinaries},
					{Name: "model", Dest: ProjectBinaries},
				},
			},
		},
	},

	"sample-native-core": {
		Name:        "sample-native-core",
		Plugin:      "VoicevoxNativeCore",
		Module:      "VoicevoxCore",
		Description: "Sample VoicevoxNativeCore plugin: project binaries, dylibs delay-loaded only",
		Definitions: []string{dicDefinition},
		Layouts: map[platform.Target]Layout{
			platform.Win64: {
				IncludeDir: dir(""),
				ImportLibs: []string{"voicevox_core.lib"},
				Libraries: []Library{
					{File: "voicevox_core.dll", Dest: ProjectBinaries, DelayLoad: true},
					{File: "onnxruntime.dll", Dest: ProjectBinaries, DelayLoad: true},
				},
				Optional: []Library{
					{File: "onnxruntime_providers_shared.dll", Dest: ProjectBinaries, DelayLoad: true},
					{File: "onnxruntime_providers_cuda.dll", Dest: ProjectBinaries, DelayLoad: true},
					{File: "onnxruntime_providers_tensorrt.dll", Dest: ProjectBinaries, DelayLoad: true},
				},
				Directories: []Directory{
					{Name: OpenJTalkDicName, Dest: ProjectBinaries},
					{Name: "model", Dest: ProjectBinaries},
				},
			},
			platform.Mac: {
				IncludeDir: dir(""),
				Libraries: []Library{
					{File: macCore, Dest: ProjectBinaries, DelayLoad: true},
					{File: macOnnxRuntime, Dest: ProjectBinaries, DelayLoad: true},
				},
				Directories: []Directory{
					{Name: OpenJTalkDicName, Dest: ProjectBinaries},
					{Name: "model", Dest: ProjectBinaries},
				},
			},
		},
	},

	"native-core": {
		Name:        "native-core",
		Plugin:      "VoicevoxNativeCore",
		Module:      "VoicevoxCore",
		Description: "VoicevoxNativeCore plugin: core library under the plugin ThirdParty binaries",
		Definitions: []string{dicDefinition},
		Layouts: map[platform.Target]Layout{
			platform.Win64: {
				ImportLibs: []string{"voicevox_core.lib"},
				Libraries: []Library{
					{File: "voicevox_core.dll", Dest: ThirdPartyBinaries("VoicevoxCore"), DelayLoad: true},
					{File: "onnxruntime.dll", Dest: ProjectBinaries, DelayLoad: true},
				},
				Optional: []Library{
					{File: "onnxruntime_providers_shared.dll", Dest: ProjectBinaries, DelayLoad: true},
					{File: "DirectML.dll", Dest: ProjectBinaries, DelayLoad: true},
				},
				Bundles: []Bundle{
					{Name: "cuda", Gate: "onnxruntime_providers_cuda.dll", Members: cudaBundle, Dest: ProjectBinaries},
				},
				Directories: []Directory{
					{Name: OpenJTalkDicName, Dest: ProjectBinaries},
					{Name: "model", Dest: ThirdPartyBinaries("VoicevoxCore"), SubdirDest: ProjectBinaries},
				},
				Loader: "Binaries/ThirdParty/VoicevoxCore/Win64/voicevox_core.dll",
			},
			platform.Mac: {
				Libraries: []Library{
					{File: macCore, Dest: ThirdPartyBinaries("VoicevoxCoreNemo"), DelayLoad: true},
					{File: macOnnxRuntime, Dest: ProjectBinaries, DelayLoad: true},
				},
				Directories: []Directory{
					{Name: OpenJTalkDicName, Dest: ProjectBinaries},
					{Name: "model", Dest: ThirdPartyBinaries("VoicevoxCore"), SubdirDest: ProjectBinaries},
				},
				Loader: "Binaries/ThirdParty/VoicevoxCore/Mac/" + macCore,
			},
		},
	},

	"core-nemo": {
		Name:        "core-nemo",
		Plugin:      "VoicevoxNativeCoreNemo",
		Module:      "VoicevoxCoreNemo",
		Description: "VoicevoxNativeCoreNemo plugin: NEMO core and models under the plugin ThirdParty binaries",
		Definitions: []string{dicDefinition},
		Layouts: map[platform.Target]Layout{
			platform.Win64: {
				IncludeDir: dir(""),
				ImportLibs: []string{"voicevox_core.lib"},
				Libraries: []Library{
					{File: "voicevox_core.dll", Dest: ThirdPartyBinaries("VoicevoxCoreNemo"), DelayLoad: true},
				},
				Directories: []Directory{
					{Name: "model", Dest: ThirdPartyBinaries("VoicevoxCoreNemo")},
				},
				Loader: "Binaries/ThirdParty/VoicevoxCoreNemo/Win64/voicevox_core.dll",
			},
			platform.Mac: {
				IncludeDir: dir(""),
				Libraries: []Library{
					{File: macCore, Dest: ThirdPartyBinaries("VoicevoxCoreNemo"), DelayLoad: true},
				},
				Directories: []Directory{
					{Name: "model", Dest: ThirdPartyBinaries("VoicevoxCoreNemo")},
				},
				Loader: "Binaries/ThirdParty/VoicevoxCoreNemo/Mac/libvoicevox_core_nemo.dylib",
			},
		},
	},

	"native-nemo-core": {
		Name:        "native-nemo-core",
		Plugin:      "VoicevoxNemoCore",
		Module:      "VoicevoxNativeNemoCore",
		Description: "Sample VoicevoxNemoCore plugin: NEMO build kept in a Nemo subfolder on Windows",
		Definitions: []string{dicDefinition},
		Layouts: map[platform.Target]Layout{
			platform.Win64: {
				IncludeDir: dir("Nemo"),
				ImportLibs: []string{"Nemo/voicevox_core.lib"},
				Libraries: []Library{
					{File: "voicevox_core.dll", Dir: "Nemo", Dest: ProjectBinaries + "/Nemo", DelayLoad: true},
					{File: "onnxruntime.dll", Dir: "Nemo", Dest: ProjectBinaries + "/Nemo", DelayLoad: true},
				},
				Optional: []Library{
					{File: "DirectML.dll", Dir: "Nemo", Dest: ProjectBinaries + "/Nemo", DelayLoad: true},
				},
				Bundles: []Bundle{
					// The gate sits in Nemo/ while members are read from the
					// platform folder itself.
					{Name: "cuda", Gate: "Nemo/onnxruntime_providers_cuda.dll", Members: cudaBundle, Dest: ProjectBinaries + "/Nemo"},
				},
				Directories: []Directory{
					{Name: "model", Dir: "Nemo", Dest: ProjectBinaries + "/Nemo"},
				},
			},
			platform.Mac: {
				IncludeDir: dir(""),
				Libraries: []Library{
					{File: macCore, Dest: ProjectBinaries, DelayLoad: true},
					{File: macOnnxRuntime, Dest: ProjectBinaries, DelayLoad: true},
				},
				Directories: []Directory{
					{Name: "model", Dest: ProjectBinaries},
				},
			},
		},
	},
}
