package afriwork

// Role is the value of the x-hasura-role header a query runs under.
type Role string

const (
	RoleTemporaryUser Role = "insert_temporary_user"
	RoleUser          Role = "user"
	RoleJobSeeker     Role = "job_seeker"
)

// DefaultPlatformName is the platform applications are submitted from.
const DefaultPlatformName = "BOT"

type operation struct {
	name  string
	query string
	role  Role
	// key is the field under `data` the caller needs.
	key   string
	stage Stage
}

var (
	opFetchUser = operation{
		name: "FetchUserByTelegramId",
		query: `query FetchUserByTelegramId($telegram_id: String!) {
  users(where: {telegram_id: {_eq: $telegram_id}}) {
    id
    __typename
  }
}`,
		role:  RoleTemporaryUser,
		key:   "users",
		stage: StageUser,
	}

	opJobSeeker = operation{
		name: "js_id",
		query: `query js_id($user_id: uuid!) {
  job_seekers(where: {user_id: {_eq: $user_id}}) {
    id
    default_profile_id
    finalized_at
    user {
      first_name
      __typename
    }
    __typename
  }
}`,
		role:  RoleUser,
		key:   "job_seekers",
		stage: StageJobSeeker,
	}

	opProfilesExist = operation{
		name: "FetchUserJobSeekerProfiles",
		query: `query FetchUserJobSeekerProfiles($telegram_id: String) {
  job_seeker_profile(
    where: {job_seeker: {user: {telegram_id: {_eq: $telegram_id}}}}
  ) {
    id
    __typename
  }
  job_seeker_draft_profile(
    where: {job_seeker: {user: {telegram_id: {_eq: $telegram_id}}}}
  ) {
    id
    __typename
  }
}`,
		role:  RoleUser,
		key:   "job_seeker_profile",
		stage: StageProfiles,
	}

	opPlatform = operation{
		name: "getPlatformId",
		query: `query getPlatformId($name: String!) {
  platforms(where: {name: {_eq: $name}}) {
    id
    name
    __typename
  }
}`,
		role:  RoleJobSeeker,
		key:   "platforms",
		stage: StagePlatform,
	}

	opPlatformBot = operation{
		name: "getPlatformId",
		query: `query getPlatformId {
  platforms(where: {name: {_eq: "BOT"}}) {
    id
    name
    __typename
  }
}`,
		role:  RoleJobSeeker,
		key:   "platforms",
		stage: StagePlatform,
	}

	opCV = operation{
		name: "jsCv",
		query: `query jsCv($id: uuid!) {
  job_seekers(where: {id: {_eq: $id}}) {
    cv
    user {
      first_name
      __typename
    }
    __typename
  }
}`,
		role:  RoleJobSeeker,
		key:   "job_seekers",
		stage: StageCV,
	}

	opProfiles = operation{
		name: "FetchJobSeekerProfilesById",
		query: `query FetchJobSeekerProfilesById($job_seeker_id: uuid!) {
  job_seekers_by_pk(id: $job_seeker_id) {
    profiles {
      id
      professional_title
      __typename
    }
    default_profile_id
    __typename
  }
}`,
		role:  RoleJobSeeker,
		key:   "job_seekers_by_pk",
		stage: StageProfileList,
	}

	opJobDetails = operation{
		name: "viewDetails",
		query: `query viewDetails($id: uuid!, $share_id: uuid) {
  view_job_details(obj: {job_id: $id, share_id: $share_id}) {
    id
    title
    approval_status
    job_type
    job_site
    location
    entity {
      name
      type
    }
    sectors {
      sector {
        name
      }
    }
    city {
      en
      country {
        en
      }
    }
    deadline
    vacancy_count
    experience_level
    description
    __typename
  }
}`,
		role:  RoleUser,
		key:   "view_job_details",
		stage: StageJobDetails,
	}

	opApply = operation{
		name: "ApplyToJob",
		query: `mutation ApplyToJob($application: JobApplicationInput!, $job_id: uuid!, $origin_platform_id: uuid!, $share_id: uuid, $telegramUsername: String, $profile_id: uuid!) {
  apply_to_job(
    application: $application
    job_id: $job_id
    origin_platform_id: $origin_platform_id
    job_share_id: $share_id
    telegram_username: $telegramUsername
    profile_id: $profile_id
  ) {
    application_id
    __typename
  }
}`,
		role:  RoleJobSeeker,
		key:   "apply_to_job",
		stage: StageSubmit,
	}
)
